package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config menyimpan seluruh konfigurasi aplikasi yang dibaca dari environment.
// Nilai ini dibuat sekali di main dan di-pass secara eksplisit ke setiap
// komponen, tidak disimpan sebagai global.
type Config struct {
	AppPort int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string

	RedisHost string
	RedisPort int

	// Secret dan algoritma JWT bersifat process-level, tidak pernah
	// berasal dari request.
	JWTSecret      string
	JWTAlgorithm   string
	JWTExpiryHours int

	// BcryptCost sengaja tinggi (~250-500ms per hash).
	BcryptCost int

	LogDir string
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort: envInt("APP_PORT", 3004),

		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBNameTest: os.Getenv("DB_NAME_TEST"),

		RedisHost: envString("REDIS_HOST", "localhost"),
		RedisPort: envInt("REDIS_PORT", 6379),

		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		JWTAlgorithm:   envString("JWT_ALGORITHM", "HS256"),
		JWTExpiryHours: envInt("JWT_EXPIRY_HOURS", 24),

		BcryptCost: envInt("BCRYPT_COST", 12),

		LogDir: envString("LOG_DIR", "logs"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
