package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskhub/configs"
	"taskhub/internal/models"
)

// Claims berisi registered claims standar plus email. Email hanya untuk
// display, tidak pernah dipakai untuk keputusan otorisasi; identitas
// diambil dari Subject.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer menerbitkan dan memverifikasi bearer token HS256.
// Secret, algoritma, dan masa berlaku berasal dari konfigurasi proses.
type TokenIssuer struct {
	secret   []byte
	method   jwt.SigningMethod
	validity time.Duration
}

func NewTokenIssuer(cfg configs.Config) (*TokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret key is not configured")
	}
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.JWTAlgorithm)
	}
	return &TokenIssuer{
		secret:   []byte(cfg.JWTSecret),
		method:   method,
		validity: time.Duration(cfg.JWTExpiryHours) * time.Hour,
	}, nil
}

// Issue membuat token untuk user dengan sub = user id (string), iat = now,
// exp = now + masa berlaku. Token immutable; tidak ada refresh, expiry
// memaksa login ulang.
func (ti *TokenIssuer) Issue(userID int, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.validity)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(ti.method, claims).SignedString(ti.secret)
}

// Verify memvalidasi token dan mengembalikan user id dari claim sub.
// Semua kegagalan (malformed, signature salah, expired, sub bukan angka)
// dikembalikan sebagai ErrUnauthorized yang sama, tanpa detail penyebab.
func (ti *TokenIssuer) Verify(tokenString string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, models.ErrUnauthorized
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, models.ErrUnauthorized
	}
	return userID, nil
}

// ExpiresIn mengembalikan masa berlaku token dalam detik, untuk field
// expires_in pada response login.
func (ti *TokenIssuer) ExpiresIn() int {
	return int(ti.validity.Seconds())
}
