package model

import (
	"time"
)

// VehicleQuote is the vehicle snapshot embedded in a worksheet at creation.
// It is never updated afterwards; repricing happens through the manager
// adjustment, not by touching the quote.
type VehicleQuote struct {
	StockNumber  string  `json:"stock_number"`
	Year         int     `json:"year"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Trim         string  `json:"trim,omitempty"`
	MSRP         float64 `json:"msrp"`
	SellingPrice float64 `json:"selling_price"`
}

// TradeInSnapshot is the appraised trade captured at worksheet creation.
// Only Equity feeds the payment math; the rest is display data.
type TradeInSnapshot struct {
	Year            int     `json:"year"`
	Make            string  `json:"make"`
	Model           string  `json:"model"`
	Mileage         int     `json:"mileage"`
	EstimatedValue  float64 `json:"estimated_value"`
	PayoffAmount    float64 `json:"payoff_amount"`
	Equity          float64 `json:"equity"`
	AppraisalStatus string  `json:"appraisal_status"`
}

// TermOption is one entry of the worksheet's term menu. The figures are
// computed once at creation and never re-priced; a later term switch only
// re-points the worksheet's monthly payment at the chosen entry.
type TermOption struct {
	TermMonths      int     `json:"term_months"`
	APR             float64 `json:"apr"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	TotalOfPayments float64 `json:"total_of_payments"`
	TotalInterest   float64 `json:"total_interest"`
	IsSelected      bool    `json:"is_selected"`
}

// Worksheet is the aggregate for one in-progress deal. Base fields
// (selling_price, trade_equity, down_payment, selected_term, manager
// overlay) are what the two actors write; the derived fields below them
// are always recomputed from the base fields, never patched directly.
type Worksheet struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"` // active, ready

	Vehicle VehicleQuote     `json:"vehicle"`
	TradeIn *TradeInSnapshot `json:"trade_in,omitempty"`

	SellingPrice float64 `json:"selling_price"`
	TradeEquity  float64 `json:"trade_equity"`
	DownPayment  float64 `json:"down_payment"`

	SelectedTerm int          `json:"selected_term"`
	TermOptions  []TermOption `json:"term_options"`

	AmountFinanced    float64 `json:"amount_financed"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalDueAtSigning float64 `json:"total_due_at_signing"`

	DocFee   float64 `json:"doc_fee"`
	TitleFee float64 `json:"title_fee"`

	ManagerAdjustment float64 `json:"manager_adjustment"`
	ManagerNotes      string  `json:"manager_notes,omitempty"`
	CounterOfferSent  bool    `json:"counter_offer_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Worksheet status constants
const (
	StatusActive = "active"
	StatusReady  = "ready"
)

// EffectiveSellingPrice is the price the payment math runs on: the quoted
// selling price plus the manager adjustment (negative = discount). The
// quoted price itself is never mutated.
func (w *Worksheet) EffectiveSellingPrice() float64 {
	return w.SellingPrice + w.ManagerAdjustment
}

// SelectedOption returns the term option matching SelectedTerm, or nil.
func (w *Worksheet) SelectedOption() *TermOption {
	for i := range w.TermOptions {
		if w.TermOptions[i].TermMonths == w.SelectedTerm {
			return &w.TermOptions[i]
		}
	}
	return nil
}

// HasTerm reports whether months appears in the worksheet's term menu.
func (w *Worksheet) HasTerm(months int) bool {
	for i := range w.TermOptions {
		if w.TermOptions[i].TermMonths == months {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so readers never share mutable state with the
// store's own record.
func (w *Worksheet) Clone() *Worksheet {
	cp := *w
	if w.TradeIn != nil {
		trade := *w.TradeIn
		cp.TradeIn = &trade
	}
	cp.TermOptions = make([]TermOption, len(w.TermOptions))
	copy(cp.TermOptions, w.TermOptions)
	return &cp
}
