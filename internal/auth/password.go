// Password hashing for the prototype (no backend) mode, and the signup
// form's credential rules.
//
// Prototype mode keeps accounts in the device's "users" key. They are stored
// as bcrypt hashes, never as the plaintext password:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/commit-dashboard/internal/apperror"
)

// defaultCost is the bcrypt work factor (~250ms per hash on a modern machine).
const defaultCost = 12

// MinPasswordLength is the signup form's minimum.
const MinPasswordLength = 6

// maxPasswordBytes is bcrypt's input limit; longer input is silently truncated.
const maxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct so that tests can inject a lower cost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given bcrypt
// cost. Use bcrypt.MinCost (4) in tests in other packages.
//
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the plaintext password with bcrypt.
// Returns an error if the plaintext is longer than 72 bytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil if plaintext matches hash. The comparison is
// constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// ValidateCredentials applies the signup form rules: an email address is
// required and must look like one; a password of 6 to 72 bytes is required.
func ValidateCredentials(email, password string) error {
	switch {
	case email == "":
		return apperror.ValidationFailed("email", "email is required")
	case !emailPattern.MatchString(email):
		return apperror.ValidationFailed("email", "enter a valid email address")
	case password == "":
		return apperror.ValidationFailed("password", "password is required")
	case len(password) < MinPasswordLength:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(password) > maxPasswordBytes:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", maxPasswordBytes))
	}
	return nil
}
