package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/services"
	"github.com/isra2/desasolve/internal/utils"
	"github.com/labstack/echo/v4"
)

// WorkerHandler обрабатывает запросы бригады и присутствия.
type WorkerHandler struct {
	attendance services.AttendanceService
	now        func() time.Time
}

func NewWorkerHandler(attendance services.AttendanceService) *WorkerHandler {
	return &WorkerHandler{attendance: attendance, now: time.Now}
}

// List обрабатывает GET /api/workers.
func (h *WorkerHandler) List(c echo.Context) error {
	workers, err := h.attendance.ListWorkers(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("failed to list workers: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	response := make([]models.WorkerResponse, 0, len(workers))
	for _, w := range workers {
		response = append(response, workerResponse(w))
	}
	return c.JSON(http.StatusOK, response)
}

// Add обрабатывает POST /api/workers.
func (h *WorkerHandler) Add(c echo.Context) error {
	var req models.WorkerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	worker, err := h.attendance.AddWorker(c.Request().Context(), req.Name, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidWorkerName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrWorkerExists):
			return echo.NewHTTPError(http.StatusConflict, "worker already exists")
		default:
			c.Logger().Errorf("failed to add worker: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusCreated, workerResponse(worker))
}

// Remove обрабатывает DELETE /api/workers/:id.
func (h *WorkerHandler) Remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid worker id")
	}

	if err := h.attendance.RemoveWorker(c.Request().Context(), id); err != nil {
		if errors.Is(err, services.ErrWorkerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "worker not found")
		}
		c.Logger().Errorf("failed to remove worker: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.NoContent(http.StatusNoContent)
}

// Daily обрабатывает GET /api/attendance?date=.
func (h *WorkerHandler) Daily(c echo.Context) error {
	day, err := utils.ParseDay(c.QueryParam("date"), h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	entries, err := h.attendance.DailyAttendance(c.Request().Context(), day)
	if err != nil {
		c.Logger().Errorf("failed to get attendance: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	response := models.AttendanceResponse{
		Date:    day.Format(models.DateLayout),
		Total:   len(entries),
		Entries: make([]models.AttendanceEntryPayload, 0, len(entries)),
	}
	for _, e := range entries {
		if e.Present {
			response.Present++
		}
		response.Entries = append(response.Entries, models.AttendanceEntryPayload{
			WorkerID: e.Worker.ID.String(),
			Name:     e.Worker.Name,
			Present:  e.Present,
		})
	}
	return c.JSON(http.StatusOK, response)
}

// Mark обрабатывает PUT /api/attendance/:workerID.
func (h *WorkerHandler) Mark(c echo.Context) error {
	workerID, err := uuid.Parse(c.Param("workerID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid worker id")
	}

	var req models.AttendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	day, err := utils.ParseDay(req.Date, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	if err := h.attendance.MarkAttendance(c.Request().Context(), workerID, day, req.Present); err != nil {
		if errors.Is(err, services.ErrWorkerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "worker not found")
		}
		c.Logger().Errorf("failed to mark attendance: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.NoContent(http.StatusNoContent)
}

func workerResponse(w *models.Worker) models.WorkerResponse {
	return models.WorkerResponse{
		ID:        w.ID.String(),
		Name:      w.Name,
		Role:      w.Role,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}
