package snapshot

import (
	"context"
	"errors"
	"time"

	"stocksight/backend/internal/domain"
)

// StorageKey identifies the single snapshot every persister reads and writes.
const StorageKey = "stocksight-store"

// SchemaVersion is stamped into every saved snapshot so a future layout
// change can detect and migrate old payloads.
const SchemaVersion = 1

var ErrNoSnapshot = errors.New("no snapshot")

// State is the full serialized contents of the domain store.
type State struct {
	SchemaVersion int                    `json:"schema_version"`
	Products      []domain.Product       `json:"products"`
	Sales         []domain.Sale          `json:"sales"`
	StockLogs     []domain.StockLogEntry `json:"stock_logs"`
	SalesReps     []domain.SalesRep      `json:"sales_reps"`
	Activities    []domain.Activity      `json:"activities"`
	Revision      uint64                 `json:"revision"`
	SavedAt       time.Time              `json:"saved_at"`
}

// Persister loads the snapshot once at startup and saves it after every
// mutation. Load returns ErrNoSnapshot when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state State) error
}

type Noop struct{}

func (Noop) Load(_ context.Context) (*State, error) {
	return nil, ErrNoSnapshot
}

func (Noop) Save(_ context.Context, _ State) error {
	return nil
}
