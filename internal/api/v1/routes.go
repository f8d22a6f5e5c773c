package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"taskhub/internal/api/v1/handlers"
	"taskhub/internal/auth"
	"taskhub/internal/middleware"
	myws "taskhub/internal/websocket"
)

// Deps membawa semua dependensi yang dibutuhkan route; dibangun di main
// dan di-pass eksplisit, tanpa global.
type Deps struct {
	Auth   *handlers.AuthHandler
	Task   *handlers.TaskHandler
	User   *handlers.UserHandler
	Issuer *auth.TokenIssuer
	Hub    *myws.Hub
}

func RegisterRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api/v1")

	// Auth
	api.Post("/auth/register", deps.Auth.Register)
	api.Post("/auth/login", deps.Auth.Login)

	// User
	userRoutes := api.Group("/users", middleware.RequireAuth(deps.Issuer))
	userRoutes.Get("/me", deps.User.Me)

	// Task
	taskRoutes := api.Group("/tasks", middleware.RequireAuth(deps.Issuer))
	taskRoutes.Post("/", deps.Task.CreateTask)
	taskRoutes.Get("/", deps.Task.ListTasks)
	taskRoutes.Get("/:id", deps.Task.GetTask)
	taskRoutes.Put("/:id", deps.Task.UpdateTask)
	taskRoutes.Delete("/:id", deps.Task.DeleteTask)

	// WebSocket: stream event task milik user yang terautentikasi.
	// Browser tidak bisa set header pada koneksi WS, jadi token lewat
	// query string dan diverifikasi sebelum upgrade.
	app.Use("/api/v1/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := deps.Issuer.Verify(c.Query("token"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"success": false,
				"status":  401,
			})
		}
		c.Locals("userID", userID)
		return c.Next()
	})
	api.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID := conn.Locals("userID").(int)
		client := &myws.Client{UserID: userID, Conn: conn}
		deps.Hub.Register <- client
		defer func() {
			deps.Hub.Unregister <- client
		}()
		// Koneksi hanya untuk push; baca sampai client menutup
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
