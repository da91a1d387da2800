package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpalmer79/dealdesk/middleware"
	"github.com/mpalmer79/dealdesk/model"
	"github.com/mpalmer79/dealdesk/pkg/logger"
	"github.com/mpalmer79/dealdesk/service"
)

type WorksheetHandler struct {
	store *service.WorksheetStore
}

func NewWorksheetHandler(store *service.WorksheetStore) *WorksheetHandler {
	return &WorksheetHandler{store: store}
}

// WorksheetResponse is the envelope every worksheet endpoint returns.
type WorksheetResponse struct {
	Success   bool             `json:"success"`
	Worksheet *model.Worksheet `json:"worksheet,omitempty"`
	Message   string           `json:"message,omitempty"`
}

func respondWorksheet(c *gin.Context, w *model.Worksheet) {
	c.JSON(http.StatusOK, WorksheetResponse{Success: true, Worksheet: w})
}

// respondError maps the store's error taxonomy onto HTTP statuses.
// Transient storage failures return 503 so the kiosk can retry.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTerm), errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrTransientIO):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, WorksheetResponse{Success: false, Message: err.Error()})
}

type CreateWorksheetRequest struct {
	Vehicle     model.VehicleQuote     `json:"vehicle" binding:"required"`
	TradeIn     *model.TradeInSnapshot `json:"trade_in,omitempty"`
	DownPayment float64                `json:"down_payment"`
}

// Create builds a worksheet from the handoff flow's quote and trade,
// owned by the calling kiosk session.
func (h *WorksheetHandler) Create(c *gin.Context) {
	var req CreateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, WorksheetResponse{Success: false, Message: "Invalid request body"})
		return
	}

	w, err := h.store.Create(c.Request.Context(), service.CreateInput{
		SessionID:          middleware.GetSessionID(c),
		Vehicle:            req.Vehicle,
		TradeIn:            req.TradeIn,
		InitialDownPayment: req.DownPayment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondWorksheet(c, w)
}

// Get returns a consistent snapshot of one worksheet.
func (h *WorksheetHandler) Get(c *gin.Context) {
	asManager := middleware.GetRole(c) == middleware.RoleManager
	w, err := h.store.Get(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c), asManager)
	if err != nil {
		respondError(c, err)
		return
	}
	respondWorksheet(c, w)
}

// Patch applies a customer edit (down payment and/or term selection).
func (h *WorksheetHandler) Patch(c *gin.Context) {
	var patch model.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, WorksheetResponse{Success: false, Message: "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if patch.IsEmpty() {
		// Nothing to write; hand back the current snapshot
		h.Get(c)
		return
	}

	w, err := h.store.ApplyCustomerPatch(ctx, c.Param("id"), middleware.GetSessionID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondWorksheet(c, w)
}

// MarkReady hands the worksheet off to the sales manager. Safe to call
// repeatedly; only the first call pages the manager.
func (h *WorksheetHandler) MarkReady(c *gin.Context) {
	w, err := h.store.MarkReady(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "worksheet marked ready", "worksheet_id", w.ID)

	respondWorksheet(c, w)
}

// Override applies the manager-only overlay fields.
func (h *WorksheetHandler) Override(c *gin.Context) {
	var override model.ManagerOverride
	if err := c.ShouldBindJSON(&override); err != nil {
		c.JSON(http.StatusBadRequest, WorksheetResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if override.IsEmpty() {
		c.JSON(http.StatusBadRequest, WorksheetResponse{Success: false, Message: "No override fields provided"})
		return
	}

	w, err := h.store.ApplyManagerOverride(c.Request.Context(), c.Param("id"), override)
	if err != nil {
		respondError(c, err)
		return
	}
	respondWorksheet(c, w)
}

// List returns every worksheet, newest first, for the dashboard summary.
// Term options are omitted from the list view.
func (h *WorksheetHandler) List(c *gin.Context) {
	worksheets, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(worksheets))
	for i, w := range worksheets {
		result[i] = gin.H{
			"id":                   w.ID,
			"session_id":           w.SessionID,
			"status":               w.Status,
			"stock_number":         w.Vehicle.StockNumber,
			"vehicle":              w.Vehicle,
			"amount_financed":      w.AmountFinanced,
			"monthly_payment":      w.MonthlyPayment,
			"total_due_at_signing": w.TotalDueAtSigning,
			"counter_offer_sent":   w.CounterOfferSent,
			"created_at":           w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":           w.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"worksheets": result})
}
