package repository

import (
	"context"

	"github.com/mpalmer79/dealdesk/model"
)

// WorksheetRepository persists worksheet snapshots. Get returns (nil, nil)
// for an unknown id; only I/O failures produce an error. Locking and
// invariant enforcement are the store's job, not the repository's.
type WorksheetRepository interface {
	Save(ctx context.Context, w *model.Worksheet) error
	Get(ctx context.Context, id string) (*model.Worksheet, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Worksheet, error)
}
