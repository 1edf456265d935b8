package httpserver

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/repledger/internal/domain"
	apperrors "github.com/pscheid92/repledger/internal/platform/errors"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// userIDParam parses a positive chat platform user id from the path.
func userIDParam(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid user id").WithField(name, raw)
	}
	return id, nil
}

func tagIDParam(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid tag id").WithField("id", raw)
	}
	return id, nil
}

// pageParams reads page and page_size, defaulting to the first page of ten.
func pageParams(c echo.Context) (page, pageSize int, err error) {
	page, pageSize = defaultPage, defaultPageSize
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("page_size", &pageSize).
		BindError(); err != nil {
		return 0, 0, apperrors.ValidationError("page and page_size must be integers")
	}
	if !domain.ValidPage(page, pageSize) {
		return 0, 0, apperrors.ValidationError(fmt.Sprintf("page must be positive and page_size between 1 and %d", domain.MaxPageSize)).
			WithField("page", page).WithField("page_size", pageSize)
	}
	return page, pageSize, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperrors.ValidationError("malformed request body")
	}
	return nil
}
