package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

const (
	userOne = "0b6f2a9c-5d1e-4e3b-8a7c-2f9d1c0e4b11"
	userTwo = "6c1d8e2f-3a4b-4c5d-9e6f-7a8b9c0d1e22"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, exp, err := tm.GenerateToken(userOne, "jane@example.com", []Role{RoleHR})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userOne, claims.Subject)
	assert.Equal(t, []Role{RoleHR}, claims.Roles)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", 5)
	tm.now = func() time.Time { return issued }

	token, exp, err := tm.GenerateToken(userOne, "", []Role{RoleMember})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(5*time.Minute), exp)

	tm.now = func() time.Time { return exp.Add(10 * time.Second) }
	_, err = tm.ParseToken(token)
	require.NoError(t, err, "within clock skew")

	tm.now = func() time.Time { return exp.Add(time.Minute) }
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenSubjectMustBeUUID(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	for _, subject := range []string{"", "actor-1"} {
		_, _, err := tm.GenerateToken(subject, "", nil)
		assert.Error(t, err, subject)
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "actor-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tm.ParseToken(forged)
	assert.ErrorContains(t, err, "not a UUID")
}

func newProtectedApp(tm *TokenManager, roles ...Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/", NewAuthMiddleware(tm).Handle, RequireRoles(roles...), func(c *fiber.Ctx) error {
		actor := ActorID(c)
		if actor == nil {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(*actor)
	})
	return app
}

func TestMiddlewareAndRoles(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newProtectedApp(tm, RoleHR)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	member, _, err := tm.GenerateToken(userOne, "", []Role{RoleMember})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin, _, err := tm.GenerateToken(userTwo, "", []Role{RoleAdmin})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
