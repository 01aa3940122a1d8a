package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// Role grants access to groups of endpoints.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleHR     Role = "hr"
	RoleMember Role = "member"
)

// RequireRoles ensures the principal holds one of the allowed roles. Admins
// pass every check.
func RequireRoles(allowed ...Role) fiber.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.HasRole(RoleAdmin) {
			return c.Next()
		}
		for _, role := range principal.Roles {
			if _, exists := allowedSet[role]; exists {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
