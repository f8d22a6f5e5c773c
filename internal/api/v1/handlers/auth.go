package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskhub/internal/auth"
	"taskhub/internal/models"
	"taskhub/internal/repository"
	"taskhub/pkg/logger"
)

// AuthHandler menangani registrasi dan login. Dependensi diberikan lewat
// konstruktor, bukan global.
type AuthHandler struct {
	users      *repository.UserRepo
	issuer     *auth.TokenIssuer
	validate   *validator.Validate
	bcryptCost int
}

func NewAuthHandler(users *repository.UserRepo, issuer *auth.TokenIssuer, validate *validator.Validate, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		users:      users,
		issuer:     issuer,
		validate:   validate,
		bcryptCost: bcryptCost,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	// struct RegisterRequest menerima inputan dari user
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Validasi berjalan sebelum menyentuh hashing maupun database
	if err := h.validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Normalisasi email ke lowercase sebelum cek keunikan dan insert
	email := models.NormalizeEmail(req.Email)

	// Hash password dengan bcrypt; cost dari konfigurasi
	hashedPassword, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	// Insert user; keunikan email dijaga oleh constraint database, jadi
	// registrasi yang balapan pada email sama tetap gagal di sini.
	user, err := h.users.Create(c.Context(), email, hashedPassword)
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			// Registrasi boleh membocorkan bahwa email sudah ada;
			// login tidak.
			logger.SecurityLogger.Warn("Duplicate email in register", zap.String("email", email))
			return c.Status(409).JSON(fiber.Map{
				"message": "Email already registered",
				"success": false,
				"status":  409,
			})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	// kembalikan response success; password tidak pernah ikut response
	logger.AuditLogger.Info("User registered successfully", zap.Int("user_id", user.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	// struct LoginRequest menerima inputan dari user
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := h.validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// invalidCredentials dipakai untuk SEMUA jalur gagal login, supaya
	// email tidak terdaftar dan password salah tidak bisa dibedakan.
	invalidCredentials := func() error {
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	email := models.NormalizeEmail(req.Email)

	user, err := h.users.GetByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.SecurityLogger.Warn("Login with unknown email", zap.String("email", email))
			return invalidCredentials()
		}
		logger.ErrorLogger.Error("Error fetching user during login", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error logging in",
			"success": false,
			"status":  500,
		})
	}

	// invalid password
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		logger.SecurityLogger.Warn("Login with wrong password", zap.Int("user_id", user.ID))
		return invalidCredentials()
	}

	// Terbitkan bearer token dengan sub = user id
	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error logging in",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Login success",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   h.issuer.ExpiresIn(),
		},
	})
}
