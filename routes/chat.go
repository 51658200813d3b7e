package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vedantlights/indiapropertys-sub000/chat"
	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/services"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

type SendChatMessageInput struct {
	InquiryID uint   `json:"inquiryID" validate:"required"`
	Text      string `json:"text" validate:"lt=5000"`
}

// SendChatMessage appends a message to the inquiry's conversation through
// the bridge: create-or-get conversation, append, advance status, notify
// the counterpart.
func SendChatMessage(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input SendChatMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var inquiry models.Inquiry
	if err := storage.DB.First(&inquiry, input.InquiryID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if claims.ID != inquiry.BuyerID && claims.ID != inquiry.SellerID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	controller := newBridgeController(claims, inquiry)
	message, err := controller.SendMessage(ctx.Request().Context(), input.Text)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			utils.JSONError(ctx, iris.StatusBadRequest, "validation_error", "message text is empty")
		case errors.Is(err, chat.ErrInvalidIdentity):
			utils.JSONError(ctx, iris.StatusBadRequest, "invalid_identity", "inquiry is missing participant or property ids")
		case errors.Is(err, chat.ErrStoreUnavailable):
			utils.JSONError(ctx, iris.StatusServiceUnavailable, "store_unavailable", "message could not be delivered, please retry")
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	recipientID := inquiry.SellerID
	if claims.ID == inquiry.SellerID {
		recipientID = inquiry.BuyerID
	}
	var sender models.User
	if err := storage.DB.First(&sender, claims.ID).Error; err == nil {
		notificationService := services.NewNotificationService()
		go notificationService.SendMessageNotification(
			recipientID,
			claims.ID,
			sender.DisplayName(),
			inquiryPropertyTitle(inquiry),
		)
	}

	ctx.JSON(iris.Map{
		"message":         message,
		"conversationKey": message.ConversationKey,
		"status":          controller.Status(),
	})
}

type conversationEntry struct {
	Key             string    `json:"key"`
	PropertyID      uint      `json:"propertyID"`
	PropertyTitle   string    `json:"propertyTitle"`
	Counterpart     iris.Map  `json:"counterpart"`
	LastMessageText string    `json:"lastMessageText"`
	LastMessageAt   time.Time `json:"lastMessageAt"`
	LastSenderID    uint      `json:"lastSenderID"`
}

// ListConversations: GET /api/chat/conversations
// The inbox view: every conversation the user participates in, newest
// activity first, with the other side's display info resolved.
func ListConversations(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	conversations, err := conversationDir.ListForUser(ctx.Request().Context(), claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var userIDs []uint
	var propertyIDs []uint
	for _, conv := range conversations {
		other := conv.CounterpartID
		if claims.ID == conv.CounterpartID {
			other = conv.BuyerID
		}
		if !slices.Contains(userIDs, other) {
			userIDs = append(userIDs, other)
		}
		if !slices.Contains(propertyIDs, conv.PropertyID) {
			propertyIDs = append(propertyIDs, conv.PropertyID)
		}
	}

	usersByID := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		if err := storage.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		for _, u := range users {
			usersByID[u.ID] = u
		}
	}

	titlesByID := make(map[uint]string, len(propertyIDs))
	if len(propertyIDs) > 0 {
		var properties []models.Property
		if err := storage.DB.Select("id, title").Where("id IN ?", propertyIDs).Find(&properties).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		for _, p := range properties {
			titlesByID[p.ID] = p.Title
		}
	}

	entries := make([]conversationEntry, 0, len(conversations))
	for _, conv := range conversations {
		otherID := conv.CounterpartID
		if claims.ID == conv.CounterpartID {
			otherID = conv.BuyerID
		}
		other := usersByID[otherID]
		entries = append(entries, conversationEntry{
			Key:           conv.Key,
			PropertyID:    conv.PropertyID,
			PropertyTitle: titlesByID[conv.PropertyID],
			Counterpart: iris.Map{
				"id":        otherID,
				"name":      other.DisplayName(),
				"avatarURL": other.AvatarURL,
			},
			LastMessageText: conv.LastMessageText,
			LastMessageAt:   conv.LastMessageAt,
			LastSenderID:    conv.LastSenderID,
		})
	}

	ctx.JSON(iris.Map{"conversations": entries})
}

// GetConversationMessages: GET /api/chat/conversations/{key}
func GetConversationMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	key := ctx.Params().Get("key")

	conv, err := conversationDir.Details(ctx.Request().Context(), key)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if claims.ID != conv.BuyerID && claims.ID != conv.CounterpartID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	messages, err := messageStore.Messages(ctx.Request().Context(), key)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"conversation": conv, "messages": messages})
}

// StreamConversation: GET /api/chat/conversations/{key}/stream
// Server-sent events: one full snapshot per event. The subscription is
// released when the client disconnects, never later.
func StreamConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	key := ctx.Params().Get("key")

	conv, err := conversationDir.Details(ctx.Request().Context(), key)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	if claims.ID != conv.BuyerID && claims.ID != conv.CounterpartID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	// Snapshots supersede each other, so when the client lags we drop the
	// oldest buffered one rather than block the store.
	snapshots := make(chan chat.Snapshot, 8)
	sub, err := messageStore.Subscribe(ctx.Request().Context(), key, func(snap chat.Snapshot) {
		for {
			select {
			case snapshots <- snap:
				return
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	})
	if err != nil {
		utils.JSONError(ctx, iris.StatusServiceUnavailable, "store_unavailable", "live updates unavailable, please retry")
		return
	}
	defer sub.Stop()

	ctx.CompressWriter(false)
	ctx.ContentType("text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	w := ctx.ResponseWriter()
	flusher, ok := w.Flusher()
	if !ok {
		utils.CreateInternalServerError(ctx)
		return
	}

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return
		case snap := <-snapshots:
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// Typing indicator: set a short-lived key in Redis for 5 seconds
func Typing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	key := ctx.Params().Get("key")

	conv, err := conversationDir.Details(ctx.Request().Context(), key)
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if claims.ID != conv.BuyerID && claims.ID != conv.CounterpartID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	storage.Redis.Set(ctx.Request().Context(), typingKey(key, claims.ID), "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports whether the other participant is typing
func ListTyping(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	key := ctx.Params().Get("key")

	conv, err := conversationDir.Details(ctx.Request().Context(), key)
	if err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if claims.ID != conv.BuyerID && claims.ID != conv.CounterpartID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	otherID := conv.CounterpartID
	if claims.ID == conv.CounterpartID {
		otherID = conv.BuyerID
	}

	typing := false
	if val, err := storage.Redis.Get(ctx.Request().Context(), typingKey(key, otherID)).Result(); err == nil && val == "1" {
		typing = true
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing, "userID": otherID})
}

func typingKey(conversationKey string, userID uint) string {
	return fmt.Sprintf("typing:%s:user:%d", conversationKey, userID)
}
