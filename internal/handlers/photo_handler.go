package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/services"
	"github.com/labstack/echo/v4"
)

// MaxPhotoSize - предельный размер загружаемого фото.
const MaxPhotoSize = 10 << 20

// PhotoHandler обрабатывает фото до и после работ.
type PhotoHandler struct {
	photos services.PhotoService
}

func NewPhotoHandler(photos services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Get обрабатывает GET /api/services/:id/photos.
func (h *PhotoHandler) Get(c echo.Context) error {
	photos, err := h.photos.Photos(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidPhotoService) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		c.Logger().Errorf("failed to get photos: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "photo storage unavailable")
	}
	return c.JSON(http.StatusOK, photos)
}

// Upload обрабатывает PUT /api/services/:id/photos/:kind. Тело - само изображение.
func (h *PhotoHandler) Upload(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxPhotoSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unable to read body")
	}
	if len(body) > MaxPhotoSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "photo is too large")
	}

	photo, err := h.photos.Upload(
		c.Request().Context(),
		c.Param("id"),
		models.PhotoKind(c.Param("kind")),
		c.Request().Header.Get(echo.HeaderContentType),
		body,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPhotoKind), errors.Is(err, services.ErrInvalidPhotoService),
			errors.Is(err, services.ErrEmptyPhoto):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUnsupportedPhoto):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		default:
			c.Logger().Errorf("failed to upload photo: %v", err)
			return echo.NewHTTPError(http.StatusBadGateway, "photo storage unavailable")
		}
	}

	return c.JSON(http.StatusOK, photo)
}
