package routes

import (
	"fmt"

	"github.com/Vedantlights/indiapropertys-sub000/chat"
	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/services"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type CreateInquiryInput struct {
	PropertyID uint   `json:"propertyID" validate:"required"`
	Message    string `json:"message" validate:"required,lt=5000"`
}

// CreateInquiry records a buyer's question about a property. Status starts
// at new; the chat bridge advances it from there.
func CreateInquiry(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateInquiryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, input.PropertyID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if property.HostID == claims.ID {
		utils.JSONError(ctx, iris.StatusBadRequest, "own_property", "cannot inquire about your own property")
		return
	}

	inquiry := models.Inquiry{
		BuyerID:    claims.ID,
		SellerID:   property.HostID,
		PropertyID: property.ID,
		Message:    input.Message,
		Status:     chat.StatusNew,
	}
	if err := storage.DB.Create(&inquiry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var buyer models.User
	if err := storage.DB.First(&buyer, claims.ID).Error; err == nil {
		notificationService := services.NewNotificationService()
		go notificationService.SendInquiryNotificationToSeller(
			property.HostID,
			inquiry.ID,
			property.ID,
			buyer.DisplayName(),
			property.Title,
		)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(inquiry)
}

// ListInquiries: GET /api/inquiries?page=...&perPage=...
// Returns inquiries where the current user is buyer or seller.
func ListInquiries(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("perPage", 30)
	if perPage < 1 || perPage > 100 {
		perPage = 30
	}

	q := storage.DB.Model(&models.Inquiry{}).
		Where("buyer_id = ? OR seller_id = ?", claims.ID, claims.ID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var inquiries []models.Inquiry
	if err := q.Preload("Buyer").Preload("Seller").Preload("Property").
		Order("id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&inquiries).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, inquiries, page, perPage, total)
}

// MarkInquiryRead: POST /api/inquiries/{id}/read
// First view by the seller side drives new→read. Idempotent: repeat calls
// and calls past read are no-ops.
func MarkInquiryRead(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var inquiry models.Inquiry
	if err := storage.DB.First(&inquiry, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if claims.ID != inquiry.SellerID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	controller := newBridgeController(claims, inquiry)
	controller.MarkAsRead(ctx.Request().Context())

	ctx.JSON(iris.Map{"id": inquiry.ID, "status": controller.Status()})
}

type UpdateInquiryStatusInput struct {
	Status string `json:"status" validate:"required,oneof=read replied closed"`
}

// UpdateInquiryStatus: PATCH /api/inquiries/{id}/status (admin only).
// Goes through the same forward-only machine as the bridge, so an admin
// close can never be undone by a later read/replied write.
func UpdateInquiryStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var input UpdateInquiryStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var inquiry models.Inquiry
	if err := storage.DB.First(&inquiry, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	next, err := statusMachine.Advance(ctx.Request().Context(), inquiry.ID, inquiry.Status, input.Status)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"id": inquiry.ID, "status": next})
}

func inquiryPropertyTitle(inquiry models.Inquiry) string {
	if inquiry.Property.ID != 0 {
		return inquiry.Property.Title
	}
	var property models.Property
	if err := storage.DB.First(&property, inquiry.PropertyID).Error; err != nil {
		return fmt.Sprintf("property #%d", inquiry.PropertyID)
	}
	return property.Title
}
