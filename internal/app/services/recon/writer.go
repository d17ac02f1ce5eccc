// Package recon maintains the reconciliation queue: every on-chain
// transaction the services believe succeeded gets an entry here so an
// operator (or the confirmer) can detect ledger/store divergence.
package recon

import (
	"context"

	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Writer appends reconciliation entries. Append failures are logged and
// swallowed: tracking must never fail the operation it tracks.
type Writer struct {
	store storage.ReconciliationStore
	log   *logger.Logger
}

// NewWriter constructs a Writer.
func NewWriter(store storage.ReconciliationStore, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.NewDefault("recon")
	}
	return &Writer{store: store, log: log}
}

// Append records a pending entry for txID. Safe to call with best-effort
// semantics from any workflow.
func (w *Writer) Append(ctx context.Context, txID string, entityType recon.EntityType, entityID string) {
	if txID == "" {
		return
	}
	_, err := w.store.AppendReconEntry(ctx, recon.Entry{
		TxID:       txID,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     recon.StatusPending,
	})
	metrics.RecordReconAppend(err)
	if err != nil {
		w.log.Errorf("append reconciliation entry %s (%s %s): %v", txID, entityType, entityID, err)
	}
}
