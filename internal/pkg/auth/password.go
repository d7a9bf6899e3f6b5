package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
)

// DefaultBcryptCost is used when no cost is configured
const DefaultBcryptCost = 12

// MinPasswordLength is the shortest password accepted for new credentials
const MinPasswordLength = 8

// MaxPasswordLength is the bcrypt input limit in bytes
const MaxPasswordLength = 72

const temporaryPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// PasswordHasher hashes and compares bcrypt passwords
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Compare reports whether password matches hash
func (h *PasswordHasher) Compare(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ConstantTimeEqual compares two secrets without leaking their common prefix length
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidatePasswordPolicy checks that a new password has at least MinPasswordLength
// characters, at most MaxPasswordLength bytes, and at least one letter and one digit
func ValidatePasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrInvalidPassword, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", apperrors.ErrInvalidPassword, MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain letters and digits", apperrors.ErrInvalidPassword)
	}
	return nil
}

// GenerateTemporaryPassword returns a random password of length n that satisfies the policy
func GenerateTemporaryPassword(n int) (string, error) {
	if n < MinPasswordLength {
		n = MinPasswordLength
	}

	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))
	for {
		buf := make([]byte, n)
		for i := range buf {
			idx, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("failed to generate temporary password: %w", err)
			}
			buf[i] = temporaryPasswordAlphabet[idx.Int64()]
		}

		if ValidatePasswordPolicy(string(buf)) == nil {
			return string(buf), nil
		}
	}
}
