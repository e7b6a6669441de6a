package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"

	"rental_chat_service/internal/chat/app"
	"rental_chat_service/pkg/middlewares"
)

// RegisterRoutes 注册聊天相关的路由
// @title Rental Chat Service API
// @version 1.0
// @description API documentation for Rental Chat Service
// @host localhost:8080
// @BasePath /
func RegisterRoutes(r *fiber.App, chatHandler *app.ChatHandler, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)
	r.Post("/debug", app.DebugLogFlag)

	// handshake 驗證只綁 principal，不擋連線
	r.Get("/ws", middlewares.HandshakeAuth(), websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	chatRoutes := r.Group("/api/chat")
	chatRoutes.Use(middlewares.JWTMiddleware())
	chatRoutes.Post("/room", chatHandler.CreateRoom)
	chatRoutes.Get("/rooms", chatHandler.ListRooms)
	chatRoutes.Get("/history/:roomId", chatHandler.History)
	chatRoutes.Post("/room/:roomId/message", chatHandler.SendMessage)
	chatRoutes.Post("/room/:roomId/image", chatHandler.UploadImage)
	chatRoutes.Post("/room/:roomId/read", chatHandler.MarkRead)

	fcmRoutes := r.Group("/fcm")
	fcmRoutes.Use(middlewares.JWTMiddleware())
	fcmRoutes.Post("/token", chatHandler.SaveFcmToken)
}
