package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/services"
	"github.com/isra2/desasolve/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// QuoteHandler обрабатывает запросы, связанные с предложениями.
type QuoteHandler struct {
	quotes services.QuoteService
}

func NewQuoteHandler(quotes services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// List обрабатывает GET /api/quotes?status=.
func (h *QuoteHandler) List(c echo.Context) error {
	snap := h.quotes.Snapshot()
	items := snap.Items

	if raw := c.QueryParam("status"); raw != "" {
		status, err := models.ParseQuoteStatus(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		items = services.FilterByStatus(snap.Items, status)
	}

	return c.JSON(http.StatusOK, quoteListResponse(items, snap.Loading, snap.Err))
}

// Refresh обрабатывает POST /api/quotes/refresh.
func (h *QuoteHandler) Refresh(c echo.Context) error {
	if err := h.quotes.LoadQuotes(c.Request().Context()); err != nil {
		return storeError(c, err)
	}
	snap := h.quotes.Snapshot()
	return c.JSON(http.StatusOK, quoteListResponse(snap.Items, snap.Loading, snap.Err))
}

// Create обрабатывает POST /api/quotes.
func (h *QuoteHandler) Create(c echo.Context) error {
	var req models.CreateQuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	draft, err := draftFromRequest(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	quote, err := h.quotes.CreateQuote(c.Request().Context(), draft)
	if err != nil {
		return storeError(c, err)
	}
	if quote == nil {
		return c.NoContent(http.StatusCreated)
	}
	return c.JSON(http.StatusCreated, quoteResponse(*quote))
}

// Accept обрабатывает POST /api/quotes/:id/accept.
func (h *QuoteHandler) Accept(c echo.Context) error {
	id := c.Param("id")
	if err := h.quotes.AcceptQuote(c.Request().Context(), id); err != nil {
		return storeError(c, err)
	}
	return h.respondQuote(c, id)
}

// Reject обрабатывает POST /api/quotes/:id/reject.
func (h *QuoteHandler) Reject(c echo.Context) error {
	id := c.Param("id")
	if err := h.quotes.RejectQuote(c.Request().Context(), id); err != nil {
		return storeError(c, err)
	}
	return h.respondQuote(c, id)
}

// Events обрабатывает GET /api/quotes/events: поток снимков в формате SSE.
func (h *QuoteHandler) Events(c echo.Context) error {
	updates, unsubscribe := h.quotes.Subscribe()
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			data, err := json.Marshal(quoteListResponse(snap.Items, snap.Loading, snap.Err))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: quotes\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *QuoteHandler) respondQuote(c echo.Context, id string) error {
	for _, q := range h.quotes.Snapshot().Items {
		if q.ID == id {
			return c.JSON(http.StatusOK, quoteResponse(q))
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// draftFromRequest переводит DTO в черновик. Итог материала считается здесь.
func draftFromRequest(req models.CreateQuoteRequest) (services.QuoteDraft, error) {
	validUntil, err := time.Parse(models.DateLayout, strings.TrimSpace(req.ValidUntil))
	if err != nil {
		return services.QuoteDraft{}, errors.New("valid_until must be YYYY-MM-DD")
	}

	draft := services.QuoteDraft{
		ClientName:    req.ClientName,
		ClientAddress: req.ClientAddress,
		ClientPhone:   req.ClientPhone,
		Description:   req.Description,
		ServiceType:   models.ServiceType(strings.ToUpper(strings.TrimSpace(req.ServiceType))),
		LaborCost:     decimal.NewFromFloat(req.LaborCost),
		ValidUntil:    validUntil,
	}
	for _, m := range req.Materials {
		draft.Materials = append(draft.Materials, models.NewMaterial(m.Name, m.Quantity, decimal.NewFromFloat(m.UnitPrice)))
	}
	for _, ac := range req.AdditionalCosts {
		draft.AdditionalCosts = append(draft.AdditionalCosts, models.AdditionalCost{
			Description: ac.Description,
			Amount:      decimal.NewFromFloat(ac.Amount),
		})
	}
	return draft, nil
}

func quoteListResponse(quotes []models.Quote, loading bool, errMsg string) models.QuoteListResponse {
	resp := models.QuoteListResponse{
		Quotes:  make([]models.QuoteResponse, 0, len(quotes)),
		Loading: loading,
		Error:   errMsg,
	}
	for _, q := range quotes {
		resp.Quotes = append(resp.Quotes, quoteResponse(q))
	}
	return resp
}

// quoteResponse преобразует domain модель предложения в DTO для HTTP-ответа.
func quoteResponse(q models.Quote) models.QuoteResponse {
	amount, _ := q.Amount.Float64()
	resp := models.QuoteResponse{
		ID:            q.ID,
		ServiceID:     q.ServiceID,
		Amount:        amount,
		AmountText:    utils.FormatAmount(q.Amount),
		Description:   q.Description,
		Status:        string(q.Status),
		CreatedAt:     q.CreatedAt.Format(time.RFC3339),
		ValidUntil:    q.ValidUntil.Format(models.DateLayout),
		ClientName:    q.ClientName,
		ClientAddress: q.ClientAddress,
		ClientPhone:   q.ClientPhone,
	}
	if q.LaborCost != nil {
		val, _ := q.LaborCost.Float64()
		resp.LaborCost = &val
	}
	for _, m := range q.Materials {
		unit, _ := m.UnitPrice.Float64()
		total, _ := m.Total.Float64()
		resp.Materials = append(resp.Materials, models.MaterialDTO{
			Name:      m.Name,
			Quantity:  m.Quantity,
			UnitPrice: unit,
			Total:     total,
		})
	}
	for _, ac := range q.AdditionalCosts {
		val, _ := ac.Amount.Float64()
		resp.AdditionalCosts = append(resp.AdditionalCosts, models.AdditionalCostDTO{
			Description: ac.Description,
			Amount:      val,
		})
	}
	return resp
}
