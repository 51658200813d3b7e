package main

import (
	"os"

	"github.com/Vedantlights/indiapropertys-sub000/chat"
	"github.com/Vedantlights/indiapropertys-sub000/routes"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	routes.InitChatBridge(chat.NewRedisNotifier(storage.Redis))

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/{id}", accessTokenVerifierMiddleware, routes.GetUser)
	}

	property := app.Party("/api/property")
	{
		property.Get("/{id}", accessTokenVerifierMiddleware, routes.GetProperty)
	}

	inquiries := app.Party("/api/inquiries", accessTokenVerifierMiddleware)
	{
		inquiries.Post("/", routes.CreateInquiry)
		inquiries.Get("/", routes.ListInquiries)
		inquiries.Post("/{id:uint}/read", routes.MarkInquiryRead)
		inquiries.Patch("/{id:uint}/status", utils.AdminOnlyMiddleware, routes.UpdateInquiryStatus)
	}

	chatParty := app.Party("/api/chat", accessTokenVerifierMiddleware)
	{
		chatParty.Post("/messages", routes.SendChatMessage)
		chatParty.Get("/conversations", routes.ListConversations)
		chatParty.Get("/conversations/{key}", routes.GetConversationMessages)
		chatParty.Get("/conversations/{key}/stream", routes.StreamConversation)
		chatParty.Post("/conversations/{key}/typing", routes.Typing)
		chatParty.Get("/conversations/{key}/typing", routes.ListTyping)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	app.Listen(":" + port)
}
