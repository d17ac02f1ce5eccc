package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
)

func TestWriterAppendsPending(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store, nil)

	w.Append(ctx, "0xabc", recon.EntityFish, "7")

	pending, err := store.ListPendingReconEntries(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(pending))
	}
	e := pending[0]
	if e.TxID != "0xabc" || e.EntityType != recon.EntityFish || e.EntityID != "7" || e.Status != recon.StatusPending {
		t.Fatalf("unexpected entry %+v", e)
	}
}

type failingReconStore struct {
	storage.ReconciliationStore
}

func (failingReconStore) AppendReconEntry(context.Context, recon.Entry) (recon.Entry, error) {
	return recon.Entry{}, errors.New("disk full")
}

func TestWriterSwallowsStoreErrors(t *testing.T) {
	w := NewWriter(failingReconStore{}, nil)
	// Must not panic or propagate; queue writes are best effort.
	w.Append(context.Background(), "0xabc", recon.EntityPlayer, "0x01")
}

type stubResolver struct {
	done      bool
	confirmed bool
	err       error
}

func (r stubResolver) Resolve(context.Context, recon.Entry) (bool, bool, error) {
	return r.done, r.confirmed, r.err
}

func seedEntry(t *testing.T, store *memory.Store, txID string) {
	t.Helper()
	if _, err := store.AppendReconEntry(context.Background(), recon.Entry{
		TxID:       txID,
		EntityType: recon.EntityFish,
		EntityID:   "1",
		Status:     recon.StatusPending,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func entryStatus(t *testing.T, store *memory.Store, txID string) recon.Entry {
	t.Helper()
	pending, err := store.ListPendingReconEntries(context.Background(), 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, e := range pending {
		if e.TxID == txID {
			return e
		}
	}
	return recon.Entry{TxID: txID}
}

func TestConfirmerSettlesEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedEntry(t, store, "0xaaa")

	c := NewConfirmer(store, stubResolver{done: true, confirmed: true}, nil)
	c.tick(ctx)

	if pending, _ := store.ListPendingReconEntries(ctx, 10); len(pending) != 0 {
		t.Fatalf("confirmed entry still pending: %+v", pending)
	}
}

func TestConfirmerBumpsRetryCount(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedEntry(t, store, "0xbbb")

	c := NewConfirmer(store, stubResolver{done: false}, nil)
	c.tick(ctx)
	c.tick(ctx)

	e := entryStatus(t, store, "0xbbb")
	if e.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", e.RetryCount)
	}
}

func TestConfirmerLeavesEntriesOnResolverError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedEntry(t, store, "0xccc")

	c := NewConfirmer(store, stubResolver{err: errors.New("rpc down")}, nil)
	c.tick(ctx)

	e := entryStatus(t, store, "0xccc")
	if e.Status != recon.StatusPending || e.RetryCount != 0 {
		t.Fatalf("resolver errors must leave the entry untouched: %+v", e)
	}
}

func TestTimeoutResolver(t *testing.T) {
	r := NewTimeoutResolver(50 * time.Millisecond)
	entry := recon.Entry{TxID: "0xddd"}

	done, _, err := r.Resolve(context.Background(), entry)
	if err != nil || done {
		t.Fatalf("first sighting must stay pending, done=%v err=%v", done, err)
	}

	time.Sleep(60 * time.Millisecond)
	done, confirmed, err := r.Resolve(context.Background(), entry)
	if err != nil || !done || confirmed {
		t.Fatalf("expired entry must settle as failed, done=%v confirmed=%v err=%v", done, confirmed, err)
	}
}

func TestConfirmerStartStop(t *testing.T) {
	store := memory.New()
	c := NewConfirmer(store, stubResolver{}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stopping twice is a no-op.
	if err := c.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
