package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "org-hierarchy"
	clockSkew   = 30 * time.Second
)

// TokenManager issues and verifies HS256 bearer tokens. The token subject is
// the user id recorded as the actor on audit entries, so it must be a UUID.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims is the token payload.
type Claims struct {
	Email string `json:"email,omitempty"`
	Roles []Role `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for userID holding roles.
func (tm *TokenManager) GenerateToken(userID, email string, roles []Role) (string, time.Time, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", time.Time{}, err
	}
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer and expiry and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}
	if err := ValidateUserID(claims.Subject); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateUserID checks that id can be stored as an audit actor.
func ValidateUserID(id string) error {
	if id == "" {
		return errors.New("user id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("user id %q is not a UUID", id)
	}
	return nil
}
