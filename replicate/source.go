package replicate

import (
	"context"
	"time"

	"github.com/coursehound/coursehound/core"
)

// Source is the remote catalog collaborator. Only these three semantic
// operations matter to the coordinator; the transport behind them is out
// of scope.
type Source interface {
	// Count returns the total number of records in the remote catalog.
	Count(ctx context.Context) (int, error)

	// Page returns one page of records. Pages are zero-indexed.
	Page(ctx context.Context, page, pageSize int) ([]*core.Record, error)

	// Since returns records changed at or after ts, up to limit.
	Since(ctx context.Context, ts time.Time, limit int) ([]*core.Record, error)
}
