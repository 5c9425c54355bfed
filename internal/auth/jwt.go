// Package auth issues and checks the tokens that identify a commenter, and
// hashes account passwords.
//
// TOKEN FLOW:
//  1. POST /api/auth/login (or register) verifies the password and returns an
//     access token and a refresh token; the access token is also set as the
//     HttpOnly "accessToken" cookie.
//  2. Requests carry the access token as "Authorization: Bearer <jwt>" or via
//     the cookie. Middleware validates it and stores an Identity in the
//     request context.
//  3. When the access token expires, POST /api/auth/refresh trades the
//     refresh token for a new pair.
//
// The access token carries the username and role as claims, so the comment
// endpoints can stamp the author on a new comment without a user lookup.
//
// Access and refresh tokens are signed with different secrets, so a refresh
// token can never be replayed as an access token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "restaurant-guide"

// ErrTokenExpired is returned for a well-signed token past its expiry.
var ErrTokenExpired = errors.New("auth: token expired")

// Identity is who a valid access token says the caller is.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService. Both secrets must be at least 16
// characters and must differ.
// Example: JWT_ACCESS_SECRET=$(openssl rand -hex 32)
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < 16 || len(refreshSecret) < 16 {
		return nil, errors.New("auth: JWT secrets must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL is how long a freshly issued access token stays valid.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// accessClaims is the access token payload. "sub" is the user id.
type accessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs an access token for id.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.generateAccess(id, s.accessTTL)
}

func (s *TokenService) generateAccess(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := accessClaims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}
	return sign(c, s.accessSecret)
}

// GenerateRefresh signs a refresh token for userID.
func (s *TokenService) GenerateRefresh(userID string) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		Issuer:    issuer,
	}
	return sign(c, s.refreshSecret)
}

// Validate verifies an access token and returns the identity it carries.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	var c accessClaims
	if err := parse(tokenStr, &c, s.accessSecret); err != nil {
		return Identity{}, err
	}
	if c.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}
	return Identity{UserID: c.Subject, Username: c.Username, Role: c.Role}, nil
}

// ValidateRefresh verifies a refresh token and returns its user id.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	if err := parse(tokenStr, &c, s.refreshSecret); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}

func sign(c jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// parse checks signature, algorithm, issuer and expiry.
//
// jwt.WithValidMethods rejects "alg: none" and any asymmetric algorithm, which
// would otherwise let a forged token through.
func parse(tokenStr string, c jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return errors.New("auth: invalid token claims")
	}
	return nil
}
