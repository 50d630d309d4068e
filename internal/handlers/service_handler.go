package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/services"
	"github.com/labstack/echo/v4"
)

// ServiceHandler обрабатывает запросы расписания выездов.
type ServiceHandler struct {
	schedule services.ScheduleService
}

func NewServiceHandler(schedule services.ScheduleService) *ServiceHandler {
	return &ServiceHandler{schedule: schedule}
}

// List обрабатывает GET /api/services с фильтрами экрана расписания.
func (h *ServiceHandler) List(c echo.Context) error {
	filter, err := parseServiceFilter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snap := h.schedule.Snapshot()
	return c.JSON(http.StatusOK, serviceListResponse(h.schedule.Filter(filter), snap.Loading, snap.Err))
}

// Refresh обрабатывает POST /api/services/refresh.
func (h *ServiceHandler) Refresh(c echo.Context) error {
	if err := h.schedule.LoadServices(c.Request().Context()); err != nil {
		return storeError(c, err)
	}
	snap := h.schedule.Snapshot()
	return c.JSON(http.StatusOK, serviceListResponse(snap.Items, snap.Loading, snap.Err))
}

// Create обрабатывает POST /api/services.
func (h *ServiceHandler) Create(c echo.Context) error {
	service, err := bindService(c)
	if err != nil {
		return err
	}

	created, err := h.schedule.CreateService(c.Request().Context(), service)
	if err != nil {
		return storeError(c, err)
	}
	if created == nil {
		return c.NoContent(http.StatusCreated)
	}
	return c.JSON(http.StatusCreated, serviceResponse(*created))
}

// Update обрабатывает PUT /api/services/:id.
func (h *ServiceHandler) Update(c echo.Context) error {
	service, err := bindService(c)
	if err != nil {
		return err
	}

	updated, err := h.schedule.UpdateService(c.Request().Context(), c.Param("id"), service)
	if err != nil {
		return storeError(c, err)
	}
	if updated == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, serviceResponse(*updated))
}

func bindService(c echo.Context) (models.Service, error) {
	var req models.ServiceRequest
	if err := c.Bind(&req); err != nil {
		return models.Service{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	date, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return models.Service{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	status := models.ServiceStatusScheduled
	if req.Status != "" {
		status = models.ServiceStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	}

	return models.Service{
		ClientName: strings.TrimSpace(req.ClientName),
		Address:    strings.TrimSpace(req.Address),
		Date:       date,
		Time:       strings.TrimSpace(req.Time),
		Type:       models.ServiceType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Status:     status,
		Notes:      req.Notes,
	}, nil
}

func parseServiceFilter(c echo.Context) (services.ServiceFilter, error) {
	filter := services.DefaultServiceFilter()

	if raw := c.QueryParam("type"); raw != "" {
		t, err := models.ParseServiceType(raw)
		if err != nil {
			return filter, err
		}
		filter.Type = &t
	}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return filter, err
		}
		filter.Date = &d
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"completed", &filter.ShowCompleted},
		{"pending", &filter.ShowPending},
		{"in_progress", &filter.ShowInProgress},
		{"scheduled", &filter.ShowScheduled},
	}
	for _, f := range flags {
		raw := c.QueryParam(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		*f.dst = v
	}
	return filter, nil
}

func serviceListResponse(items []models.Service, loading bool, errMsg string) models.ServiceListResponse {
	resp := models.ServiceListResponse{
		Services: make([]models.ServiceResponse, 0, len(items)),
		Loading:  loading,
		Error:    errMsg,
	}
	for _, s := range items {
		resp.Services = append(resp.Services, serviceResponse(s))
	}
	return resp
}

func serviceResponse(s models.Service) models.ServiceResponse {
	resp := models.ServiceResponse{
		ID:         s.ID,
		ClientName: s.ClientName,
		Address:    s.Address,
		Date:       s.Date.Format(models.DateLayout),
		Time:       s.Time,
		Type:       string(s.Type),
		TypeName:   s.Type.DisplayName(),
		Status:     string(s.Status),
		Notes:      s.Notes,
	}
	if s.Quote != nil {
		q := quoteResponse(*s.Quote)
		resp.Quote = &q
	}
	return resp
}
