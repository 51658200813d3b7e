package routes

import (
	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
	"github.com/kataras/iris/v12"
)

// GetUser returns the public display info conversation lists render for a
// participant.
func GetUser(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var user models.User
	userExists := storage.DB.Find(&user, id)

	if userExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if userExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"avatarURL": user.AvatarURL,
		"role":      user.Role,
	})
}
