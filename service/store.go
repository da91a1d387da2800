package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpalmer79/dealdesk/finance"
	"github.com/mpalmer79/dealdesk/model"
	"github.com/mpalmer79/dealdesk/repository"
)

// MaxDownPayment is the hard ceiling on any down payment, independent of
// the vehicle price.
const MaxDownPayment = 100000.0

// Fees are the fixed per-deal fees folded into due-at-signing.
type Fees struct {
	DocFee   float64
	TitleFee float64
}

// StoreOptions configures worksheet creation and retention.
type StoreOptions struct {
	Terms         []finance.TermRate
	DefaultTerm   int
	Fees          Fees
	MaxWorksheets int // 0 = unlimited; beyond this, oldest ready worksheets are evicted
}

// WorksheetStore owns the worksheet aggregates. All mutations for one
// worksheet serialize on a per-worksheet mutex, and every mutation path
// recomputes the derived fields from the base fields before saving, so
// concurrent customer and manager writes can interleave in any order
// without leaving a worksheet internally inconsistent.
type WorksheetStore struct {
	repo     repository.WorksheetRepository
	notifier Notifier
	opts     StoreOptions

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWorksheetStore creates a store over the given repository.
func NewWorksheetStore(repo repository.WorksheetRepository, notifier Notifier, opts StoreOptions) *WorksheetStore {
	return &WorksheetStore{
		repo:     repo,
		notifier: notifier,
		opts:     opts,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutations for one worksheet.
// Mutations for different worksheets never block each other.
func (s *WorksheetStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *WorksheetStore) dropLock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

// recompute rewrites every derived field from the current base fields,
// including the manager adjustment. This is the only place in the module
// that writes AmountFinanced, MonthlyPayment or TotalDueAtSigning; all
// mutation paths funnel through it before saving.
func recompute(w *model.Worksheet) {
	effective := w.EffectiveSellingPrice()
	w.AmountFinanced = math.Max(0, effective-w.TradeEquity-w.DownPayment)

	for i := range w.TermOptions {
		w.TermOptions[i].IsSelected = w.TermOptions[i].TermMonths == w.SelectedTerm
	}
	if opt := w.SelectedOption(); opt != nil {
		w.MonthlyPayment = opt.MonthlyPayment
	} else {
		w.MonthlyPayment = 0
	}

	w.TotalDueAtSigning = w.DownPayment + w.DocFee + w.TitleFee
}

// clampDownPayment forces a requested down payment into
// [0, min(selling_price, MaxDownPayment)]. Out-of-range input is clamped
// rather than rejected; the kiosk slider can overshoot freely.
func clampDownPayment(w *model.Worksheet, v float64) float64 {
	ceiling := math.Min(w.SellingPrice, MaxDownPayment)
	return math.Min(math.Max(v, 0), ceiling)
}

// CreateInput carries everything the handoff flow knows when the customer
// finishes vehicle and trade selection.
type CreateInput struct {
	SessionID          string
	Vehicle            model.VehicleQuote
	TradeIn            *model.TradeInSnapshot
	InitialDownPayment float64
}

// Create builds a new active worksheet: the term menu is priced once from
// the initial amount financed and frozen for the worksheet's lifetime.
func (s *WorksheetStore) Create(ctx context.Context, in CreateInput) (*model.Worksheet, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	if in.Vehicle.SellingPrice <= 0 {
		return nil, fmt.Errorf("%w: vehicle selling price must be positive", ErrInvalidInput)
	}

	now := time.Now()
	w := &model.Worksheet{
		ID:           uuid.New().String(),
		SessionID:    in.SessionID,
		Status:       model.StatusActive,
		Vehicle:      in.Vehicle,
		TradeIn:      in.TradeIn,
		SellingPrice: in.Vehicle.SellingPrice,
		SelectedTerm: s.opts.DefaultTerm,
		DocFee:       s.opts.Fees.DocFee,
		TitleFee:     s.opts.Fees.TitleFee,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.TradeIn != nil {
		w.TradeEquity = in.TradeIn.Equity
	}
	w.DownPayment = clampDownPayment(w, in.InitialDownPayment)

	principal := math.Max(0, w.SellingPrice-w.TradeEquity-w.DownPayment)
	w.TermOptions = finance.GenerateTermMenu(principal, s.opts.Terms, s.opts.DefaultTerm)

	recompute(w)

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	s.evictIfNeeded(ctx)

	slog.Info("worksheet created",
		"worksheet_id", w.ID,
		"session_id", w.SessionID,
		"stock_number", w.Vehicle.StockNumber,
		"amount_financed", w.AmountFinanced,
	)

	return w, nil
}

// Get returns a consistent snapshot. Customer sessions may only read the
// worksheet they own; the manager dashboard may read any.
func (s *WorksheetStore) Get(ctx context.Context, id, sessionID string, asManager bool) (*model.Worksheet, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if !asManager && w.SessionID != sessionID {
		return nil, ErrUnauthorized
	}
	return w, nil
}

// List returns all worksheets, newest first, for the dashboard view.
func (s *WorksheetStore) List(ctx context.Context) ([]*model.Worksheet, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// ApplyCustomerPatch applies a kiosk edit. An unknown selected_term is
// rejected; an out-of-range down payment is clamped. The full updated
// worksheet is returned.
func (s *WorksheetStore) ApplyCustomerPatch(ctx context.Context, id, sessionID string, patch model.CustomerPatch) (*model.Worksheet, error) {
	return s.mutate(ctx, id, func(w *model.Worksheet) error {
		if w.SessionID != sessionID {
			return ErrUnauthorized
		}
		if patch.SelectedTerm != nil {
			if !w.HasTerm(*patch.SelectedTerm) {
				return fmt.Errorf("%w: %d months", ErrInvalidTerm, *patch.SelectedTerm)
			}
			w.SelectedTerm = *patch.SelectedTerm
		}
		if patch.DownPayment != nil {
			w.DownPayment = clampDownPayment(w, *patch.DownPayment)
		}
		return nil
	})
}

// ApplyManagerOverride applies dashboard-only fields. The adjustment
// shifts the effective selling price used by the recompute; the quoted
// price is never touched, so clearing the adjustment restores it exactly.
func (s *WorksheetStore) ApplyManagerOverride(ctx context.Context, id string, override model.ManagerOverride) (*model.Worksheet, error) {
	return s.mutate(ctx, id, func(w *model.Worksheet) error {
		if override.ManagerAdjustment != nil {
			w.ManagerAdjustment = *override.ManagerAdjustment
		}
		if override.ManagerNotes != nil {
			w.ManagerNotes = *override.ManagerNotes
		}
		if override.CounterOfferSent != nil {
			w.CounterOfferSent = *override.CounterOfferSent
		}
		return nil
	})
}

// mutate runs one atomically-applied transaction against a worksheet:
// load, edit, recompute derived fields, save, all under that worksheet's
// own lock.
func (s *WorksheetStore) mutate(ctx context.Context, id string, edit func(*model.Worksheet) error) (*model.Worksheet, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if w == nil {
		return nil, ErrNotFound
	}

	if err := edit(w); err != nil {
		return nil, err
	}

	recompute(w)
	w.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	return w, nil
}

// MarkReady transitions a worksheet to ready. The transition is one-way
// and idempotent: repeat calls succeed without paging the manager again.
// The notifier fires outside the worksheet lock, on the edge only.
func (s *WorksheetStore) MarkReady(ctx context.Context, id, sessionID string) (*model.Worksheet, error) {
	lock := s.lockFor(id)
	lock.Lock()

	w, err := s.repo.Get(ctx, id)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if w == nil {
		lock.Unlock()
		return nil, ErrNotFound
	}
	if w.SessionID != sessionID {
		lock.Unlock()
		return nil, ErrUnauthorized
	}

	if w.Status == model.StatusReady {
		lock.Unlock()
		return w, nil
	}

	w.Status = model.StatusReady
	recompute(w)
	w.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, w); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	lock.Unlock()

	s.notifier.WorksheetReady(w.Clone())

	return w, nil
}

// evictIfNeeded keeps the store from growing without bound on an
// unattended kiosk. Only ready (already handed off) worksheets are
// evicted, oldest first; active deals are never dropped.
func (s *WorksheetStore) evictIfNeeded(ctx context.Context) {
	if s.opts.MaxWorksheets <= 0 {
		return
	}

	all, err := s.repo.List(ctx)
	if err != nil || len(all) <= s.opts.MaxWorksheets {
		return
	}

	ready := make([]*model.Worksheet, 0, len(all))
	for _, w := range all {
		if w.Status == model.StatusReady {
			ready = append(ready, w)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})

	excess := len(all) - s.opts.MaxWorksheets
	for i := 0; i < excess && i < len(ready); i++ {
		slog.Info("evicting old worksheet",
			"worksheet_id", ready[i].ID,
			"created_at", ready[i].CreatedAt,
		)
		if err := s.repo.Delete(ctx, ready[i].ID); err != nil {
			slog.Warn("failed to evict worksheet", "worksheet_id", ready[i].ID, "error", err)
			continue
		}
		s.dropLock(ready[i].ID)
	}
}
