// Package tanks serves merged tank views and guards tank capacity.
package tanks

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Service manages tanks.
type Service struct {
	tanks  storage.TankStore
	fishes storage.FishStore
	ledger chain.Ledger
	log    *logger.Logger
}

// New constructs a tank service.
func New(tanks storage.TankStore, fishes storage.FishStore, ledger chain.Ledger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tanks")
	}
	return &Service{tanks: tanks, fishes: fishes, ledger: ledger, log: log}
}

// Get returns the merged tank view: the off-chain row plus the on-chain
// capacity. An ownership divergence between the two sides is logged, the
// off-chain owner wins.
func (s *Service) Get(ctx context.Context, id int64) (tank.Tank, error) {
	if id <= 0 {
		return tank.Tank{}, errs.Validationf("invalid tank id %d", id)
	}
	row, err := s.tanks.GetTankRow(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tank.Tank{}, errs.NotFoundf("tank %d not found", id)
		}
		return tank.Tank{}, fmt.Errorf("load tank %d: %w", id, err)
	}

	state, err := s.ledger.QueryTank(ctx, id)
	metrics.RecordLedgerCall("getTank", err)
	if err != nil {
		return tank.Tank{}, errs.OnChain("getTank", err)
	}
	if state.Owner != "" && state.Owner != row.Owner {
		s.log.Warnf("tank %d owner diverged: off-chain %s, on-chain %s", id, row.Owner, state.Owner)
	}

	return tank.Tank{Row: row, Capacity: state.Capacity}, nil
}

// ListByOwner returns the owner's off-chain tank rows.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]tank.Row, error) {
	rows, err := s.tanks.ListTanksByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list tanks of %s: %w", owner, err)
	}
	return rows, nil
}

// CheckCapacity verifies that the tank can house additional more fish. It
// mutates nothing; callers run it before minting into the tank.
func (s *Service) CheckCapacity(ctx context.Context, tankID, additional int64) error {
	if additional <= 0 {
		return errs.Validationf("additional fish count must be positive, got %d", additional)
	}
	t, err := s.Get(ctx, tankID)
	if err != nil {
		return err
	}
	current, err := s.fishes.CountFishInTank(ctx, tankID)
	if err != nil {
		return fmt.Errorf("count fish in tank %d: %w", tankID, err)
	}
	if current+additional > t.Capacity {
		return errs.Conflictf("tank %d is full: %d of %d occupied, cannot add %d more",
			tankID, current, t.Capacity, additional)
	}
	return nil
}
