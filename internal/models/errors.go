package models

import "errors"

// Sentinel errors yang dipakai lintas layer. Repository mengembalikan nilai
// di sini, handler menerjemahkannya ke response HTTP.
var (
	// ErrNotFound dipakai baik untuk record yang tidak ada maupun record
	// milik user lain. Keduanya sengaja tidak dibedakan.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken hanya untuk registrasi; login tidak boleh membocorkan
	// keberadaan email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnauthorized menutupi semua kegagalan verifikasi token
	// (malformed, signature salah, expired) tanpa membedakan penyebab.
	ErrUnauthorized = errors.New("unauthorized")
)
