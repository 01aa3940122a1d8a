package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/observability"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// RegisterMiddlewares installs, outermost first: request ids, the per-request
// deadline, the request logger and the error renderer. The logger wraps the
// renderer so it records final status codes.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// requestTimeoutMiddleware bounds the user context; a transaction still open
// at the deadline is aborted by the store.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("request_id", observability.RequestID(c)),
					zap.ByteString("stack", debug.Stack()),
				)
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := toDomainError(err)
			if metrics != nil {
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			}
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("request failed", zap.String("request_id", observability.RequestID(c)), zap.Error(domainErr))
			} else {
				logger.Debug("request rejected", zap.String("code", domainErr.Code), zap.String("message", domainErr.Message))
			}
			err = renderError(c, domainErr)
		}()
		return c.Next()
	}
}

func renderError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	if id := observability.RequestID(c); id != "" {
		body["request_id"] = id
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

// toDomainError also maps fiber's own errors, such as unknown routes and
// oversized bodies, onto the structured error shape.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := apperrors.CodeInternal
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			code = apperrors.CodeNotFound
		case fiberErr.Code < fiber.StatusInternalServerError:
			code = apperrors.CodeValidation
		}
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}
