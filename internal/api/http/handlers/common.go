package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"error": err.Error()})
	}
	return nil
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(domain.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{field: "must be a date in YYYY-MM-DD format"})
	}
	return &parsed, nil
}

// parseTimeQuery accepts RFC 3339 timestamps or plain dates.
func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, domain.DateLayout} {
		if parsed, err := time.Parse(layout, val); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperrors.NewValidationError("invalid query", map[string]any{key: "must be an RFC 3339 timestamp or YYYY-MM-DD date"})
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid query", map[string]any{key: "must be an integer"})
	}
	return parsed, nil
}

func parseInt64Query(c *fiber.Ctx, key string) (*int64, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid query", map[string]any{key: "must be an integer"})
	}
	return &parsed, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := c.Query(key); val != "" {
		return &val
	}
	return nil
}

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func data(v any) fiber.Map {
	return fiber.Map{"data": v}
}
