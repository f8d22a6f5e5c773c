package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskhub/internal/auth"
	"taskhub/pkg/logger"
)

// RequireAuth memverifikasi header Authorization dan menaruh user id hasil
// verifikasi di locals. Semua jalur gagal (header kosong, format salah,
// token tidak valid/expired) mengembalikan response 401 yang identik,
// supaya penyebabnya tidak bisa dibedakan dari luar.
func RequireAuth(issuer *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c)
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c)
		}
		userID, err := issuer.Verify(parts[1])
		if err != nil {
			logger.SecurityLogger.Warn("Token verification failed",
				zap.String("path", c.Path()),
			)
			return unauthorized(c)
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthorized",
		"success": false,
		"status":  401,
	})
}
