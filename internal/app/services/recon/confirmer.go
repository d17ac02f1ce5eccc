package recon

import (
	"context"
	"sync"
	"time"

	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Resolver decides whether a pending transaction has settled.
type Resolver interface {
	Resolve(ctx context.Context, e recon.Entry) (done bool, confirmed bool, err error)
}

// TimeoutResolver marks entries as failed once they have been pending
// longer than the timeout. It is the default when no chain-backed resolver
// is configured.
type TimeoutResolver struct {
	timeout time.Duration
	seen    sync.Map // txID -> time.Time
}

// NewTimeoutResolver builds a TimeoutResolver.
func NewTimeoutResolver(timeout time.Duration) *TimeoutResolver {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &TimeoutResolver{timeout: timeout}
}

func (r *TimeoutResolver) Resolve(_ context.Context, e recon.Entry) (bool, bool, error) {
	if value, ok := r.seen.Load(e.TxID); ok {
		if time.Since(value.(time.Time)) >= r.timeout {
			return true, false, nil
		}
		return false, false, nil
	}
	r.seen.Store(e.TxID, time.Now())
	return false, false, nil
}

// Confirmer polls pending reconciliation entries and settles them with the
// resolver.
type Confirmer struct {
	store    storage.ReconciliationStore
	resolver Resolver
	interval time.Duration
	batch    int
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewConfirmer builds a Confirmer. A nil resolver defaults to a
// two-minute TimeoutResolver.
func NewConfirmer(store storage.ReconciliationStore, resolver Resolver, log *logger.Logger) *Confirmer {
	if log == nil {
		log = logger.NewDefault("recon-confirmer")
	}
	if resolver == nil {
		resolver = NewTimeoutResolver(2 * time.Minute)
	}
	return &Confirmer{
		store:    store,
		resolver: resolver,
		interval: 15 * time.Second,
		batch:    100,
		log:      log,
	}
}

// Name identifies the confirmer to the lifecycle manager.
func (c *Confirmer) Name() string { return "recon-confirmer" }

// Start launches the polling loop.
func (c *Confirmer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.tick(runCtx)
			}
		}
	}()
	return nil
}

// Stop halts the polling loop and waits for it to exit.
func (c *Confirmer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Confirmer) tick(ctx context.Context) {
	entries, err := c.store.ListPendingReconEntries(ctx, c.batch)
	if err != nil {
		c.log.Errorf("list pending reconciliation entries: %v", err)
		return
	}

	for _, e := range entries {
		done, confirmed, err := c.resolver.Resolve(ctx, e)
		if err != nil {
			c.log.Warnf("resolve %s: %v", e.TxID, err)
			continue
		}
		if !done {
			e.RetryCount++
			if _, err := c.store.UpdateReconEntry(ctx, e); err != nil {
				c.log.Warnf("bump retry count for %s: %v", e.TxID, err)
			}
			continue
		}

		if confirmed {
			e.Status = recon.StatusConfirmed
		} else {
			e.Status = recon.StatusFailed
		}
		if _, err := c.store.UpdateReconEntry(ctx, e); err != nil {
			c.log.Errorf("settle %s as %s: %v", e.TxID, e.Status, err)
			continue
		}
		metrics.RecordReconResolved(string(e.Status))
		c.log.Infof("reconciliation entry %s settled as %s after %d retries", e.TxID, e.Status, e.RetryCount)
	}
}
