package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used when BCRYPT_COST is unset.
// At 12 a hash takes roughly 250ms on current server hardware.
const defaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

var (
	// ErrInvalidPassword means the hash is well-formed but the password is wrong.
	ErrInvalidPassword = errors.New("auth: invalid password")

	// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("auth: password longer than 72 bytes")
)

// PasswordService hashes account passwords with bcrypt. The salt and cost are
// embedded in the hash ("$2a$12$<salt><hash>"), so the users table stores a
// single string per account.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given cost.
// Zero selects defaultCost; values outside bcrypt's range are clamped.
// Tests pass bcrypt.MinCost.
func NewPasswordService(cost int) *PasswordService {
	switch {
	case cost == 0:
		cost = defaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrInvalidPassword when
// it does not. Any other error means the stored hash is unusable.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
