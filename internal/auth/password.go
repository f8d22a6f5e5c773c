package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword meng-hash password plaintext dengan bcrypt. Salt dibuat baru
// setiap pemanggilan, jadi dua hash dari plaintext yang sama selalu berbeda.
// Cost diambil dari konfigurasi (default 12, ~250-500ms per hash).
func HashPassword(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword membandingkan plaintext dengan hash tersimpan.
// bcrypt melakukan perbandingan constant-time.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
