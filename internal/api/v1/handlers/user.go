package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskhub/internal/models"
	"taskhub/internal/repository"
	"taskhub/pkg/logger"
)

// UserHandler hanya melayani lookup diri sendiri; tidak ada akses user
// lain lewat id dan tidak ada tier admin.
type UserHandler struct {
	users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Token valid tapi user sudah dihapus
			logger.SecurityLogger.Warn("Token for deleted user", zap.Int("user_id", userID))
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching user",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  200,
		"data":    user,
	})
}
