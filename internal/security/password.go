package security

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against its bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PinHasher hashes and verifies child PINs. Injected into services so
// tests can swap in a cheap implementation.
type PinHasher interface {
	HashPin(pin string) (string, error)
	CheckPin(pin, hash string) bool
}

// BcryptPinHasher is the production PinHasher. PINs get the same bcrypt
// treatment as passwords; they are short, so cost matters for login latency.
type BcryptPinHasher struct {
	Cost int
}

// NewBcryptPinHasher creates a PinHasher at the default bcrypt cost
func NewBcryptPinHasher() *BcryptPinHasher {
	return &BcryptPinHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptPinHasher) HashPin(pin string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptPinHasher) CheckPin(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
