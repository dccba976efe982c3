package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a staff password. It backs the hashes placed in AUTH_STAFF_ACCOUNTS.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against a configured hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// CheckHash rejects account entries that are not bcrypt hashes, e.g. a plaintext password
// pasted into the environment.
func CheckHash(hashed string) error {
	if _, err := bcrypt.Cost([]byte(hashed)); err != nil {
		return fmt.Errorf("not a bcrypt hash: %w", err)
	}
	return nil
}

var dummyHash = sync.OnceValue(func() []byte {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("unknown-staff-member"), bcrypt.DefaultCost)
	return hashed
})

// RejectUnknown spends one bcrypt comparison for a username that does not exist,
// so unknown and known usernames take the same time to reject.
func RejectUnknown(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plain))
}
