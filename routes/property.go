package routes

import (
	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
	"github.com/kataras/iris/v12"
)

// GetProperty resolves the title/owner metadata the chat surfaces display.
// Listing CRUD itself lives elsewhere.
func GetProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	propertyExists := storage.DB.Preload("Host").Find(&property, id)

	if propertyExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if propertyExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(property)
}
