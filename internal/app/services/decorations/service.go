// Package decorations manages tank decorations and their activation state.
package decorations

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	reconsvc "github.com/NeoReef/game-backend/internal/app/services/recon"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Service manages decorations.
type Service struct {
	decorations storage.DecorationStore
	ledger      chain.Ledger
	recon       *reconsvc.Writer
	log         *logger.Logger
}

// New constructs a decoration service.
func New(decorations storage.DecorationStore, ledger chain.Ledger, recon *reconsvc.Writer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("decorations")
	}
	return &Service{decorations: decorations, ledger: ledger, recon: recon, log: log}
}

// Get returns the merged decoration view.
func (s *Service) Get(ctx context.Context, id int64) (decoration.Decoration, error) {
	if id <= 0 {
		return decoration.Decoration{}, errs.Validationf("invalid decoration id %d", id)
	}
	row, err := s.decorations.GetDecorationRow(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return decoration.Decoration{}, errs.NotFoundf("decoration %d not found", id)
		}
		return decoration.Decoration{}, fmt.Errorf("load decoration %d: %w", id, err)
	}
	return s.merge(ctx, row), nil
}

// ListByOwner returns the owner's decorations with their multipliers.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]decoration.Decoration, error) {
	if err := player.ValidateAddress(owner); err != nil {
		return nil, err
	}
	rows, err := s.decorations.ListDecorationsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list decorations of %s: %w", owner, err)
	}
	out := make([]decoration.Decoration, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.merge(ctx, row))
	}
	return out, nil
}

// Activate turns a decoration's XP bonus on. Activating an already active
// decoration is a conflict, not a no-op, so clients learn their view is
// stale.
func (s *Service) Activate(ctx context.Context, owner string, id int64) (decoration.Decoration, error) {
	return s.setActive(ctx, owner, id, true)
}

// Deactivate turns a decoration's XP bonus off.
func (s *Service) Deactivate(ctx context.Context, owner string, id int64) (decoration.Decoration, error) {
	return s.setActive(ctx, owner, id, false)
}

func (s *Service) setActive(ctx context.Context, owner string, id int64, active bool) (decoration.Decoration, error) {
	if err := player.ValidateAddress(owner); err != nil {
		return decoration.Decoration{}, err
	}
	if id <= 0 {
		return decoration.Decoration{}, errs.Validationf("invalid decoration id %d", id)
	}
	row, err := s.decorations.GetDecorationRow(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return decoration.Decoration{}, errs.NotFoundf("decoration %d not found", id)
		}
		return decoration.Decoration{}, fmt.Errorf("load decoration %d: %w", id, err)
	}
	if row.Owner != owner {
		return decoration.Decoration{}, errs.Validationf("decoration %d is not owned by %s", id, owner)
	}
	if row.IsActive == active {
		if active {
			return decoration.Decoration{}, errs.Conflictf("decoration %d is already active", id)
		}
		return decoration.Decoration{}, errs.Conflictf("decoration %d is already inactive", id)
	}

	var txID string
	if active {
		txID, err = s.ledger.ActivateDecoration(ctx, id)
		metrics.RecordLedgerCall("activateDecoration", err)
		if err != nil {
			return decoration.Decoration{}, errs.OnChain("activateDecoration", err)
		}
	} else {
		txID, err = s.ledger.DeactivateDecoration(ctx, id)
		metrics.RecordLedgerCall("deactivateDecoration", err)
		if err != nil {
			return decoration.Decoration{}, errs.OnChain("deactivateDecoration", err)
		}
	}

	row.IsActive = active
	updated, err := s.decorations.UpdateDecorationRow(ctx, row)
	if err != nil {
		return decoration.Decoration{}, fmt.Errorf(
			"decoration %d toggled on chain (tx %s) but off-chain update failed and must be reconciled: %w",
			id, txID, err)
	}
	s.recon.Append(ctx, txID, recon.EntityDecoration, fmt.Sprint(id))

	return s.merge(ctx, updated), nil
}

// merge attaches the on-chain multiplier to a row, falling back to the
// kind's nominal bonus when the ledger is unreachable.
func (s *Service) merge(ctx context.Context, row decoration.Row) decoration.Decoration {
	state, err := s.ledger.QueryDecoration(ctx, row.ID)
	metrics.RecordLedgerCall("getDecoration", err)
	if err != nil {
		s.log.Warnf("decoration %d: ledger query failed, using nominal bonus: %v", row.ID, err)
		return decoration.Decoration{Row: row, XPMultiplier: row.Kind.Percent()}
	}
	return decoration.Decoration{Row: row, XPMultiplier: state.XPMultiplier}
}
