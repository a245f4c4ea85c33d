package app

import "github.com/CrestNiraj12/terminalmeme/domain"

// SessionService provides the identity of the current user.
type SessionService interface {
	// Current returns the signed-in identity; ok is false when nobody is signed in.
	Current() (domain.Identity, bool)

	// SignInGuest creates a guest session for username. wallet may be empty.
	SignInGuest(username, wallet string) (domain.Identity, error)
}

// LocalStore is a small typed key-value store that survives restarts.
type LocalStore interface {
	GetString(key string) (string, bool)
	SetString(key, value string) error
	GetBool(key string) bool
	SetBool(key string, value bool) error
	Delete(key string) error
	Clear() error
}
