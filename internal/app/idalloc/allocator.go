// Package idalloc issues monotonically increasing entity ids backed by the
// relational store's current maximum.
//
// The ledger assigns token ids from the same sequence, so the allocator must
// stay ahead of whatever is already persisted even when rows are deleted
// out-of-band. All allocation goes through a single mutex so that the
// read-max-then-increment step cannot interleave across workflows.
package idalloc

import (
	"context"
	"sync"

	"github.com/NeoReef/game-backend/pkg/logger"
)

// MaxIDFunc reports the current maximum id in the store, zero when the
// store holds no rows.
type MaxIDFunc func(ctx context.Context) (int64, error)

// Allocator issues ids for one entity kind.
type Allocator struct {
	mu       sync.Mutex
	kind     string
	maxID    MaxIDFunc
	counter  int64
	lastSeen int64
	log      *logger.Logger
}

// New creates an allocator for the given kind. The first allocation reads
// the store maximum lazily.
func New(kind string, maxID MaxIDFunc, log *logger.Logger) *Allocator {
	if log == nil {
		log = logger.NewDefault("idalloc")
	}
	return &Allocator{kind: kind, maxID: maxID, log: log}
}

// Next issues one id.
func (a *Allocator) Next(ctx context.Context) (int64, error) {
	ids, err := a.NextN(ctx, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextN issues n consecutive ids in one allocation. Workflows that need
// several ids (the starter pack mints a tank and two fish) take them in a
// single call so the sequence cannot interleave with another workflow's
// allocations.
func (a *Allocator) NextN(ctx context.Context, n int) ([]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	storeMax, err := a.maxID(ctx)
	if err != nil {
		// Availability over strict correctness: keep issuing from the
		// in-memory counter and let the operator sort out duplicates.
		a.log.Warnf("idalloc %s: store max read failed, continuing from %d: %v", a.kind, a.counter, err)
	} else {
		if storeMax == 0 && a.lastSeen > 0 {
			// The store went from non-empty to empty: an external wipe.
			// Restart the sequence rather than inheriting stale ids.
			a.log.Warnf("idalloc %s: store wiped (last seen max %d), resetting counter", a.kind, a.lastSeen)
			a.counter = 0
		}
		if storeMax > a.counter {
			a.counter = storeMax
		}
		a.lastSeen = storeMax
	}

	ids := make([]int64, n)
	for i := range ids {
		a.counter++
		ids[i] = a.counter
	}
	return ids, nil
}
