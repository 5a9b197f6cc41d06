package auth

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"moneypal/internal/apperr"
)

// MinPasswordLength is enforced at registration only; existing hashes
// keep working if the policy tightens later.
const MinPasswordLength = 8

// HashPassword derives a bcrypt hash at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext candidate against a stored hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword applies the registration password policy.
func ValidatePassword(plain string) error {
	if len(plain) < MinPasswordLength {
		return apperr.Validation(apperr.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}
	var hasLetter, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperr.Validation(apperr.FieldError{
			Field:   "password",
			Message: "must contain at least one letter and one digit",
		})
	}
	return nil
}
