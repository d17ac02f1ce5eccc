// Package players implements player registration and the starter pack
// minting workflow.
package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	"github.com/NeoReef/game-backend/internal/app/saga"
	"github.com/NeoReef/game-backend/internal/app/storage"
	reconsvc "github.com/NeoReef/game-backend/internal/app/services/recon"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Starter pack contents.
const (
	StarterTankName     = "Starter Tank"
	StarterTankCapacity = 10
	StarterSpecies1     = "Clownfish"
	StarterSpecies2     = "Neon Tetra"
)

// StarterPack is the result of a successful starter pack mint.
type StarterPack struct {
	Tank  tank.Row
	Fish  []fish.Row
	TxIDs []string
}

// Service manages players.
type Service struct {
	players storage.PlayerStore
	fishes  storage.FishStore
	tanks   storage.TankStore
	ledger  chain.Ledger
	recon   *reconsvc.Writer
	log     *logger.Logger
}

// New constructs a player service.
func New(players storage.PlayerStore, fishes storage.FishStore, tanks storage.TankStore, ledger chain.Ledger, recon *reconsvc.Writer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("players")
	}
	return &Service{players: players, fishes: fishes, tanks: tanks, ledger: ledger, recon: recon, log: log}
}

// Get returns the player row for an address.
func (s *Service) Get(ctx context.Context, address string) (player.Player, error) {
	if err := player.ValidateAddress(address); err != nil {
		return player.Player{}, err
	}
	p, err := s.players.GetPlayer(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return player.Player{}, errs.NotFoundf("player %s not found", address)
		}
		return player.Player{}, fmt.Errorf("load player %s: %w", address, err)
	}
	return p, nil
}

// Register creates the player on first call and returns the existing row on
// every later call. The on-chain registration runs only on the creation
// path; a failed starter pack mint is logged but does not fail
// registration.
func (s *Service) Register(ctx context.Context, address string) (player.Player, error) {
	if err := player.ValidateAddress(address); err != nil {
		return player.Player{}, err
	}

	existing, err := s.players.GetPlayer(ctx, address)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return player.Player{}, fmt.Errorf("load player %s: %w", address, err)
	}

	created, err := s.players.CreatePlayer(ctx, player.Player{Address: address})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// A concurrent registration won the race; its row is ours.
			winner, getErr := s.players.GetPlayer(ctx, address)
			if getErr != nil {
				return player.Player{}, fmt.Errorf("load player %s after duplicate insert: %w", address, getErr)
			}
			return winner, nil
		}
		return player.Player{}, fmt.Errorf("create player %s: %w", address, err)
	}

	txID, err := s.ledger.RegisterPlayer(ctx, address)
	metrics.RecordLedgerCall("registerPlayer", err)
	if err != nil {
		// The off-chain row stays: it satisfies "player exists" for the
		// idempotent retry, and the queue consumer repairs the chain side.
		s.log.Errorf("on-chain registration of %s failed, off-chain row kept: %v", address, err)
		return player.Player{}, errs.OnChain("registerPlayer", err)
	}
	s.recon.Append(ctx, txID, recon.EntityPlayer, address)

	if _, err := s.MintStarterPack(ctx, address); err != nil {
		s.log.Warnf("starter pack for %s failed during registration: %v", address, err)
		return created, nil
	}

	// Pick up the counters the starter pack updated.
	if refreshed, err := s.players.GetPlayer(ctx, address); err == nil {
		return refreshed, nil
	}
	return created, nil
}

// MintStarterPack grants a registered player their initial tank and two
// fish. The on-chain mints run first; if any off-chain insert then fails,
// the inserted rows are deleted best-effort and the returned error names
// the transaction ids that already committed on chain.
func (s *Service) MintStarterPack(ctx context.Context, address string) (StarterPack, error) {
	if err := player.ValidateAddress(address); err != nil {
		return StarterPack{}, err
	}

	if _, err := s.players.GetPlayer(ctx, address); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return StarterPack{}, errs.Validationf("player %s is not registered; register first", address)
		}
		return StarterPack{}, fmt.Errorf("load player %s: %w", address, err)
	}

	// Two independent existence checks; the fish_count mirror may be stale.
	tankCount, err := s.tanks.CountTanksByOwner(ctx, address)
	if err != nil {
		return StarterPack{}, fmt.Errorf("count tanks of %s: %w", address, err)
	}
	if tankCount > 0 {
		return StarterPack{}, errs.Conflictf("player %s already owns a tank", address)
	}
	fishCount, err := s.fishes.CountFishByOwner(ctx, address)
	if err != nil {
		return StarterPack{}, fmt.Errorf("count fish of %s: %w", address, err)
	}
	if fishCount > 0 {
		return StarterPack{}, errs.Conflictf("player %s already owns fish", address)
	}

	// On-chain phase: strictly sequential, nothing persisted off-chain yet,
	// so a failure here is a clean abort.
	tankReceipt, err := s.ledger.MintTank(ctx, address, StarterTankCapacity)
	metrics.RecordLedgerCall("mintTank", err)
	if err != nil {
		return StarterPack{}, errs.OnChain("mintTank", err)
	}

	fish1Receipt, err := s.ledger.MintFish(ctx, address, StarterSpecies1, chain.NewDNA())
	metrics.RecordLedgerCall("mintFish", err)
	if err != nil {
		return StarterPack{}, errs.OnChainAfter("mintFish", tankReceipt.TxID, err)
	}

	fish2Receipt, err := s.ledger.MintFish(ctx, address, StarterSpecies2, chain.NewDNA())
	metrics.RecordLedgerCall("mintFish", err)
	if err != nil {
		return StarterPack{}, errs.OnChainAfter("mintFish", fish1Receipt.TxID, err)
	}

	// Off-chain phase as a saga: a failure rolls back the rows already
	// inserted, fish before tank, and reports the committed mints.
	var (
		tankRow  tank.Row
		fishRows [2]fish.Row
	)

	pack := saga.New("starter-pack", s.log)
	pack.Add(saga.Step{
		Name: "insert-tank",
		Run: func(ctx context.Context) error {
			row, err := s.insertTank(ctx, tank.Row{
				ID:    tankReceipt.TokenID,
				Owner: address,
				Name:  StarterTankName,
			})
			tankRow = row
			return err
		},
		Compensate: func(ctx context.Context) error {
			return s.tanks.DeleteTank(ctx, tankReceipt.TokenID)
		},
	})
	for i, receipt := range []chain.MintReceipt{fish1Receipt, fish2Receipt} {
		i, receipt := i, receipt
		species := []string{StarterSpecies1, StarterSpecies2}[i]
		pack.Add(saga.Step{
			Name: fmt.Sprintf("insert-fish-%d", i+1),
			Run: func(ctx context.Context) error {
				tankID := tankReceipt.TokenID
				row, err := s.insertFish(ctx, fish.Row{
					ID:      receipt.TokenID,
					Owner:   address,
					Species: species,
					TankID:  &tankID,
				})
				fishRows[i] = row
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.fishes.DeleteFish(ctx, receipt.TokenID)
			},
		})
	}
	pack.Add(saga.Step{
		Name: "update-fish-count",
		Run: func(ctx context.Context) error {
			p, err := s.players.GetPlayer(ctx, address)
			if err != nil {
				return err
			}
			p.FishCount = 2
			_, err = s.players.UpdatePlayer(ctx, p)
			return err
		},
	})

	if err := pack.Run(ctx); err != nil {
		metrics.RecordSagaCompensation()
		return StarterPack{}, fmt.Errorf(
			"starter pack for %s: off-chain persistence failed and inserted rows were rolled back; on-chain mints already committed (tank tx %s, fish txs %s, %s) and must be reconciled manually: %w",
			address, tankReceipt.TxID, fish1Receipt.TxID, fish2Receipt.TxID, err)
	}

	s.recon.Append(ctx, tankReceipt.TxID, recon.EntityTank, fmt.Sprint(tankReceipt.TokenID))
	s.recon.Append(ctx, fish1Receipt.TxID, recon.EntityFish, fmt.Sprint(fish1Receipt.TokenID))
	s.recon.Append(ctx, fish2Receipt.TxID, recon.EntityFish, fmt.Sprint(fish2Receipt.TokenID))

	s.log.Infof("starter pack minted for %s: tank %d, fish %d and %d",
		address, tankReceipt.TokenID, fish1Receipt.TokenID, fish2Receipt.TokenID)

	return StarterPack{
		Tank:  tankRow,
		Fish:  []fish.Row{fishRows[0], fishRows[1]},
		TxIDs: []string{tankReceipt.TxID, fish1Receipt.TxID, fish2Receipt.TxID},
	}, nil
}

// insertTank inserts a tank row, treating a duplicate as idempotent success
// when the existing row has the same owner.
func (s *Service) insertTank(ctx context.Context, row tank.Row) (tank.Row, error) {
	created, err := s.tanks.CreateTank(ctx, row)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, storage.ErrDuplicate) {
		return tank.Row{}, err
	}
	existing, getErr := s.tanks.GetTankRow(ctx, row.ID)
	if getErr != nil {
		return tank.Row{}, fmt.Errorf("tank %d duplicate, reload failed: %w", row.ID, getErr)
	}
	if storage.ResolveInsertConflict(existing.Owner, row.Owner) == storage.HardConflict {
		return tank.Row{}, fmt.Errorf("tank id %d already taken by %s: id space corrupted", row.ID, existing.Owner)
	}
	return existing, nil
}

// insertFish mirrors insertTank for fish rows.
func (s *Service) insertFish(ctx context.Context, row fish.Row) (fish.Row, error) {
	created, err := s.fishes.CreateFish(ctx, row)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, storage.ErrDuplicate) {
		return fish.Row{}, err
	}
	existing, getErr := s.fishes.GetFishRow(ctx, row.ID)
	if getErr != nil {
		return fish.Row{}, fmt.Errorf("fish %d duplicate, reload failed: %w", row.ID, getErr)
	}
	if storage.ResolveInsertConflict(existing.Owner, row.Owner) == storage.HardConflict {
		return fish.Row{}, fmt.Errorf("fish id %d already taken by %s: id space corrupted", row.ID, existing.Owner)
	}
	return existing, nil
}
