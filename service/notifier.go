package service

import (
	"log/slog"

	"github.com/mpalmer79/dealdesk/model"
)

// Notifier is the boundary to the manager paging channel. It is invoked
// exactly once, on the active->ready transition edge, and is fire and
// forget: delivery failures are the channel's concern, not the store's.
type Notifier interface {
	WorksheetReady(w *model.Worksheet)
}

// SlogNotifier logs the ready event. Deployments plug in the real paging
// integration behind the same interface.
type SlogNotifier struct{}

func (SlogNotifier) WorksheetReady(w *model.Worksheet) {
	slog.Info("worksheet ready for manager review",
		"worksheet_id", w.ID,
		"session_id", w.SessionID,
		"stock_number", w.Vehicle.StockNumber,
		"amount_financed", w.AmountFinanced,
		"monthly_payment", w.MonthlyPayment,
	)
}
