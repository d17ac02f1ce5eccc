// Package fishes implements feeding, breeding and fish queries.
package fishes

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/genealogy"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	reconsvc "github.com/NeoReef/game-backend/internal/app/services/recon"
	"github.com/NeoReef/game-backend/internal/app/services/tanks"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/internal/app/xp"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// FeedBaseXP is the unmultiplied XP a single feeding grants.
const FeedBaseXP = 10

// FeedResult reports the outcome of a feeding batch.
type FeedResult struct {
	FishIDs   []int64
	XPPerFish float64
	TotalXP   float64
	TxIDs     []string
}

// Service manages fish.
type Service struct {
	fishes  storage.FishStore
	players storage.PlayerStore
	ledger  chain.Ledger
	engine  *xp.Engine
	family  *genealogy.Resolver
	tanks   *tanks.Service
	recon   *reconsvc.Writer
	log     *logger.Logger
}

// New constructs a fish service.
func New(fishes storage.FishStore, players storage.PlayerStore, ledger chain.Ledger, engine *xp.Engine, family *genealogy.Resolver, tanks *tanks.Service, recon *reconsvc.Writer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("fishes")
	}
	return &Service{
		fishes:  fishes,
		players: players,
		ledger:  ledger,
		engine:  engine,
		family:  family,
		tanks:   tanks,
		recon:   recon,
		log:     log,
	}
}

// Get returns the merged fish view: the off-chain row plus the current
// ledger state. The evolution state is derived from the ledger XP.
func (s *Service) Get(ctx context.Context, id int64) (fish.Fish, error) {
	if id <= 0 {
		return fish.Fish{}, errs.Validationf("invalid fish id %d", id)
	}
	row, err := s.fishes.GetFishRow(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fish.Fish{}, errs.NotFoundf("fish %d not found", id)
		}
		return fish.Fish{}, fmt.Errorf("load fish %d: %w", id, err)
	}

	state, err := s.ledger.QueryFish(ctx, id)
	metrics.RecordLedgerCall("getFish", err)
	if err != nil {
		return fish.Fish{}, errs.OnChain("getFish", err)
	}

	merged := fish.Fish{Row: row, OnChain: fish.OnChain{
		XP:           state.XP,
		State:        fish.StateForXP(state.XP),
		Hunger:       state.Hunger,
		ReadyToBreed: state.ReadyToBreed,
		DNA:          state.DNA,
	}}
	return merged, nil
}

// ListByOwner returns the owner's off-chain fish rows.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]fish.Row, error) {
	rows, err := s.fishes.ListFishByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list fish of %s: %w", owner, err)
	}
	return rows, nil
}

// FamilyTree resolves the fish's ancestors and descendants.
func (s *Service) FamilyTree(ctx context.Context, id int64) (genealogy.FamilyTree, error) {
	if id <= 0 {
		return genealogy.FamilyTree{}, errs.Validationf("invalid fish id %d", id)
	}
	return s.family.BuildFamilyTree(ctx, id)
}

// FeedBatch feeds every fish in ids. The whole batch is validated before
// anything touches the ledger: every fish must exist and belong to owner,
// and violations are reported together, naming each offending id. All fish
// in a batch receive the same XP amount.
func (s *Service) FeedBatch(ctx context.Context, owner string, ids []int64) (FeedResult, error) {
	if err := player.ValidateAddress(owner); err != nil {
		return FeedResult{}, err
	}
	if len(ids) == 0 {
		return FeedResult{}, errs.Validationf("no fish ids given")
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return FeedResult{}, errs.Validationf("invalid fish id %d", id)
		}
		if seen[id] {
			return FeedResult{}, errs.Validationf("duplicate fish id %d in batch", id)
		}
		seen[id] = true
	}

	rows, err := s.fishes.GetFishRows(ctx, ids)
	if err != nil {
		return FeedResult{}, fmt.Errorf("load fish batch: %w", err)
	}
	byID := make(map[int64]fish.Row, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	var missing, foreign []int64
	for _, id := range ids {
		row, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case row.Owner != owner:
			foreign = append(foreign, id)
		}
	}
	if len(missing) > 0 {
		return FeedResult{}, errs.NotFoundf("fish not found: %v", missing)
	}
	if len(foreign) > 0 {
		return FeedResult{}, errs.Validationf("fish not owned by %s: %v", owner, foreign)
	}

	multiplier := s.feedMultiplier(ctx, owner)
	xpEach := xp.CalcFishXP(FeedBaseXP, multiplier*100)
	amounts := make([]float64, 0, len(ids))

	// Sequential grants; a mid-batch failure leaves the earlier grants
	// committed and reports the last tx that went through.
	txIDs := make([]string, 0, len(ids)+1)
	lastTx := ""
	for _, id := range ids {
		txID, err := s.ledger.GrantFishXP(ctx, id, xpEach)
		metrics.RecordLedgerCall("grantFishXp", err)
		if err != nil {
			return FeedResult{}, errs.OnChainAfter("grantFishXp", lastTx, err)
		}
		lastTx = txID
		txIDs = append(txIDs, txID)
		amounts = append(amounts, xpEach)
		s.recon.Append(ctx, txID, recon.EntityFish, fmt.Sprint(id))
	}

	total := xp.CalcPlayerXP(amounts)
	playerTx, err := s.ledger.GrantPlayerXP(ctx, owner, total)
	metrics.RecordLedgerCall("grantPlayerXp", err)
	if err != nil {
		return FeedResult{}, errs.OnChainAfter("grantPlayerXp", lastTx, err)
	}
	txIDs = append(txIDs, playerTx)
	s.recon.Append(ctx, playerTx, recon.EntityPlayer, owner)

	if err := s.addPlayerXP(ctx, owner, total); err != nil {
		return FeedResult{}, err
	}

	return FeedResult{FishIDs: ids, XPPerFish: xpEach, TotalXP: total, TxIDs: txIDs}, nil
}

// Breed mints an offspring from two distinct adult fish of the same owner.
// The offspring inherits species and image from the first parent and lands
// in the owner's tank.
func (s *Service) Breed(ctx context.Context, owner string, fish1ID, fish2ID int64) (fish.Fish, error) {
	if err := player.ValidateAddress(owner); err != nil {
		return fish.Fish{}, err
	}
	if fish1ID == fish2ID {
		return fish.Fish{}, errs.Validationf("a fish cannot breed with itself (fish %d)", fish1ID)
	}

	parents := make([]fish.Fish, 0, 2)
	for _, id := range []int64{fish1ID, fish2ID} {
		f, err := s.Get(ctx, id)
		if err != nil {
			return fish.Fish{}, err
		}
		if f.Owner != owner {
			return fish.Fish{}, errs.Validationf("fish %d is not owned by %s", id, owner)
		}
		if f.State != fish.StateAdult {
			return fish.Fish{}, errs.Validationf("fish %d is not adult (state %s, %.1f xp)", id, f.State, f.XP)
		}
		if !f.ReadyToBreed {
			return fish.Fish{}, errs.Validationf("fish %d is not ready to breed", id)
		}
		parents = append(parents, f)
	}

	tankRows, err := s.tanks.ListByOwner(ctx, owner)
	if err != nil {
		return fish.Fish{}, err
	}
	if len(tankRows) == 0 {
		return fish.Fish{}, errs.NotFoundf("player %s has no tank to house the offspring", owner)
	}
	tankID := tankRows[0].ID
	if err := s.tanks.CheckCapacity(ctx, tankID, 1); err != nil {
		return fish.Fish{}, err
	}

	receipt, err := s.ledger.BreedFish(ctx, fish1ID, fish2ID)
	metrics.RecordLedgerCall("breedFish", err)
	if err != nil {
		return fish.Fish{}, errs.OnChain("breedFish", err)
	}

	row := fish.Row{
		ID:        receipt.TokenID,
		Owner:     owner,
		Species:   parents[0].Species,
		ImageURL:  parents[0].ImageURL,
		TankID:    &tankID,
		Parent1ID: &fish1ID,
		Parent2ID: &fish2ID,
	}
	if _, err := s.insertFish(ctx, row); err != nil {
		return fish.Fish{}, fmt.Errorf(
			"offspring %d minted on chain (tx %s) but off-chain insert failed and must be reconciled: %w",
			receipt.TokenID, receipt.TxID, err)
	}
	s.recon.Append(ctx, receipt.TxID, recon.EntityFish, fmt.Sprint(receipt.TokenID))

	if p, err := s.players.GetPlayer(ctx, owner); err == nil {
		p.FishCount++
		p.OffspringCreated++
		if _, err := s.players.UpdatePlayer(ctx, p); err != nil {
			s.log.Warnf("breed: counter update for %s failed: %v", owner, err)
		}
	} else {
		s.log.Warnf("breed: player %s not loadable for counter update: %v", owner, err)
	}

	s.log.Infof("fish %d bred from %d and %d for %s", receipt.TokenID, fish1ID, fish2ID, owner)
	return s.Get(ctx, receipt.TokenID)
}

// feedMultiplier resolves the decoration bonus for the owner's tank. The
// bonus is best-effort: a player without a tank, or a resolver failure, just
// means unmultiplied XP.
func (s *Service) feedMultiplier(ctx context.Context, owner string) float64 {
	tankRows, err := s.tanks.ListByOwner(ctx, owner)
	if err != nil || len(tankRows) == 0 {
		if err != nil {
			s.log.Warnf("feed: tank lookup for %s failed, feeding without bonus: %v", owner, err)
		}
		return 0
	}
	multiplier, err := s.engine.ActiveDecorationMultiplier(ctx, tankRows[0].ID)
	if err != nil {
		s.log.Warnf("feed: multiplier for tank %d failed, feeding without bonus: %v", tankRows[0].ID, err)
		return 0
	}
	return multiplier
}

// addPlayerXP mirrors a chain XP grant onto the player row. Plain
// read-then-write; concurrent feeds of the same player may undercount and
// the ledger stays authoritative.
func (s *Service) addPlayerXP(ctx context.Context, owner string, amount float64) error {
	p, err := s.players.GetPlayer(ctx, owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFoundf("player %s not found", owner)
		}
		return fmt.Errorf("load player %s: %w", owner, err)
	}
	p.TotalXP = xp.CalcPlayerXP([]float64{p.TotalXP, amount})
	if _, err := s.players.UpdatePlayer(ctx, p); err != nil {
		return fmt.Errorf("update player %s xp: %w", owner, err)
	}
	return nil
}

// insertFish inserts the offspring row, treating a same-owner duplicate as
// idempotent success.
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
