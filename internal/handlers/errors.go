package handlers

import (
	"errors"
	"net/http"

	"github.com/isra2/desasolve/internal/api"
	"github.com/isra2/desasolve/internal/services"
	"github.com/labstack/echo/v4"
)

// storeError переводит ошибку хранилища в HTTP-ответ.
func storeError(c echo.Context, err error) error {
	var opErr *services.OperationError
	switch {
	case errors.Is(err, services.ErrQuoteBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidQuoteDraft), errors.Is(err, services.ErrInvalidService):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, api.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrStoreClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	case errors.As(err, &opErr):
		return echo.NewHTTPError(http.StatusBadGateway, opErr.Message)
	default:
		c.Logger().Errorf("store operation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
