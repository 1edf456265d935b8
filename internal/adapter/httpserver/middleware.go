package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/platform/correlation"
	apperrors "github.com/pscheid92/repledger/internal/platform/errors"
)

// correlationMiddleware reuses the request id as the correlation id so API
// clients can quote X-Request-Id when reporting a problem.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id == "" {
			id = correlation.NewID()
		}
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if _, ok := errors.AsType[*echo.HTTPError](err); ok {
				return err
			}

			structuredErr := toAPIError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// toAPIError maps domain failures onto API error types. Handlers may also
// return an *apperrors.Error directly, which wins.
func toAPIError(err error) *apperrors.Error {
	if structuredErr, ok := errors.AsType[*apperrors.Error](err); ok {
		return structuredErr
	}

	switch {
	case errors.Is(err, domain.ErrSelfEvaluation):
		return apperrors.ValidationError("users cannot evaluate themselves")
	case errors.Is(err, domain.ErrSelfFavorite):
		return apperrors.ValidationError("users cannot add themselves to favorites")
	case errors.Is(err, domain.ErrInvalidPage):
		return apperrors.ValidationError("page and page_size must be positive")
	case errors.Is(err, domain.ErrInvalidTag):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrInvalidSetting):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrUnknownTag):
		return apperrors.ValidationError("tag does not exist or is inactive")
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NotFoundError("not found")
	case errors.Is(err, domain.ErrDuplicateEvaluation):
		return apperrors.ConflictError("evaluation already recorded for this user and tag")
	case errors.Is(err, domain.ErrDuplicateTag):
		return apperrors.ConflictError("tag name already exists")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return apperrors.UnavailableError("store temporarily unavailable", err)
	default:
		return apperrors.AsStructuredError(err)
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case apperrors.TypeConflict:
		slog.WarnContext(ctx, "Conflict", attrs...)
	case apperrors.TypeUnavailable:
		slog.WarnContext(ctx, "Dependency unavailable", attrs...)
	default:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	}
}
