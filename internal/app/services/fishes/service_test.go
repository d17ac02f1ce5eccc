package fishes

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/genealogy"
	"github.com/NeoReef/game-backend/internal/app/idalloc"
	reconsvc "github.com/NeoReef/game-backend/internal/app/services/recon"
	tanksvc "github.com/NeoReef/game-backend/internal/app/services/tanks"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
	"github.com/NeoReef/game-backend/internal/app/xp"
	"github.com/NeoReef/game-backend/internal/chain"
)

const (
	owner = "0x00112233445566778899aabbccddeeff00112233"
	other = "0xffeeddccbbaa99887766554433221100ffeeddcc"
)

type fixture struct {
	store *memory.Store
	sim   *chain.Simulator
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	fishIDs := idalloc.New("fish", store.MaxFishID, nil)
	tankIDs := idalloc.New("tank", store.MaxTankID, nil)
	sim := chain.NewSimulator(fishIDs, tankIDs)
	writer := reconsvc.NewWriter(store, nil)
	tanks := tanksvc.New(store, store, sim, nil)
	engine := xp.NewEngine(store, store)
	family := genealogy.NewResolver(store)
	svc := New(store, store, sim, engine, family, tanks, writer, nil)

	ctx := context.Background()
	if _, err := store.CreatePlayer(ctx, player.Player{Address: owner}); err != nil {
		t.Fatalf("seed player: %v", err)
	}
	return &fixture{store: store, sim: sim, svc: svc}
}

func (f *fixture) seedTank(t *testing.T, id int64) tank.Row {
	t.Helper()
	row, err := f.store.CreateTank(context.Background(), tank.Row{ID: id, Owner: owner, Name: "reef"})
	if err != nil {
		t.Fatalf("seed tank: %v", err)
	}
	return row
}

func (f *fixture) seedFish(t *testing.T, row fish.Row) fish.Row {
	t.Helper()
	if row.Owner == "" {
		row.Owner = owner
	}
	created, err := f.store.CreateFish(context.Background(), row)
	if err != nil {
		t.Fatalf("seed fish %d: %v", row.ID, err)
	}
	return created
}

func TestFeedBatchGrantsUniformXP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tk := f.seedTank(t, 1)
	tankID := tk.ID
	f.seedFish(t, fish.Row{ID: 1, TankID: &tankID})
	f.seedFish(t, fish.Row{ID: 2, TankID: &tankID})

	// Plant (5%) + Statue (10%) + Ornament (3%) = 18% bonus.
	for i, kind := range []decoration.Kind{decoration.KindPlant, decoration.KindStatue, decoration.KindOrnament} {
		if _, err := f.store.CreateDecoration(ctx, decoration.Row{
			ID: int64(i + 1), Owner: owner, Kind: kind, IsActive: true,
		}); err != nil {
			t.Fatalf("seed decoration: %v", err)
		}
	}

	result, err := f.svc.FeedBatch(ctx, owner, []int64{1, 2})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if math.Abs(result.XPPerFish-11.8) > 1e-9 {
		t.Fatalf("expected 11.8 xp per fish, got %v", result.XPPerFish)
	}
	if math.Abs(result.TotalXP-23.6) > 1e-9 {
		t.Fatalf("expected 23.6 total xp, got %v", result.TotalXP)
	}
	// One grant per fish plus one for the player.
	if len(result.TxIDs) != 3 {
		t.Fatalf("expected 3 tx ids, got %v", result.TxIDs)
	}

	// Ledger and player row both carry the total.
	if got := f.sim.PlayerXP(owner); math.Abs(got-23.6) > 1e-9 {
		t.Fatalf("on-chain player xp %v", got)
	}
	p, err := f.store.GetPlayer(ctx, owner)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if math.Abs(p.TotalXP-23.6) > 1e-9 {
		t.Fatalf("off-chain player xp %v", p.TotalXP)
	}
}

func TestFeedBatchWithoutTankIsUnmultiplied(t *testing.T) {
	f := newFixture(t)
	f.seedFish(t, fish.Row{ID: 1})

	result, err := f.svc.FeedBatch(context.Background(), owner, []int64{1})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if result.XPPerFish != FeedBaseXP {
		t.Fatalf("expected base xp %d, got %v", FeedBaseXP, result.XPPerFish)
	}
}

func TestFeedBatchNamesEveryViolation(t *testing.T) {
	f := newFixture(t)
	f.seedFish(t, fish.Row{ID: 1})
	f.seedFish(t, fish.Row{ID: 2, Owner: other})
	f.seedFish(t, fish.Row{ID: 3, Owner: other})

	_, err := f.svc.FeedBatch(context.Background(), owner, []int64{1, 2, 3})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, id := range []string{"2", "3"} {
		if !strings.Contains(err.Error(), id) {
			t.Fatalf("error must name fish %s: %v", id, err)
		}
	}

	_, err = f.svc.FeedBatch(context.Background(), owner, []int64{1, 7, 8})
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, id := range []string{"7", "8"} {
		if !strings.Contains(err.Error(), id) {
			t.Fatalf("error must name fish %s: %v", id, err)
		}
	}
}

func TestFeedBatchRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.FeedBatch(context.Background(), owner, nil); !errs.IsValidation(err) {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := f.svc.FeedBatch(context.Background(), owner, []int64{0}); !errs.IsValidation(err) {
		t.Fatalf("zero id: %v", err)
	}
	if _, err := f.svc.FeedBatch(context.Background(), owner, []int64{1, 1}); !errs.IsValidation(err) {
		t.Fatalf("duplicate id: %v", err)
	}
}

func TestFeedBatchMidBatchChainFailure(t *testing.T) {
	f := newFixture(t)
	f.seedFish(t, fish.Row{ID: 1})

	f.sim.SetFailure("GrantPlayerXP", errors.New("halted"))
	_, err := f.svc.FeedBatch(context.Background(), owner, []int64{1})
	if !errs.IsOnChain(err) {
		t.Fatalf("expected on-chain error, got %v", err)
	}
	var oc *errs.OnChainError
	if !errors.As(err, &oc) || oc.LastTxID == "" {
		t.Fatalf("error must carry the last committed fish grant: %+v", oc)
	}
}

func breedReady() chain.FishState {
	return chain.FishState{XP: 400, Hunger: 80, ReadyToBreed: true, DNA: "aa"}
}

func TestBreedHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tk := f.seedTank(t, 1)
	tankID := tk.ID
	f.seedFish(t, fish.Row{ID: 1, Species: "Guppy", ImageURL: "guppy.png", TankID: &tankID})
	f.seedFish(t, fish.Row{ID: 2, Species: "Tetra", TankID: &tankID})
	f.sim.SetFishState(1, breedReady())
	f.sim.SetFishState(2, breedReady())
	f.sim.SetTankState(1, chain.TankState{Owner: owner, Capacity: 10})

	offspring, err := f.svc.Breed(ctx, owner, 1, 2)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if offspring.Species != "Guppy" || offspring.ImageURL != "guppy.png" {
		t.Fatalf("offspring must inherit from the first parent: %+v", offspring.Row)
	}
	if offspring.Parent1ID == nil || *offspring.Parent1ID != 1 || offspring.Parent2ID == nil || *offspring.Parent2ID != 2 {
		t.Fatalf("parent links missing: %+v", offspring.Row)
	}
	if offspring.TankID == nil || *offspring.TankID != tankID {
		t.Fatalf("offspring not housed: %+v", offspring.Row)
	}
	if offspring.State != fish.StateBaby {
		t.Fatalf("newborn must be a baby, got %s", offspring.State)
	}

	p, err := f.store.GetPlayer(ctx, owner)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if p.FishCount != 1 || p.OffspringCreated != 1 {
		t.Fatalf("player counters not updated: %+v", p)
	}
}

func TestBreedPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tk := f.seedTank(t, 1)
	tankID := tk.ID
	f.seedFish(t, fish.Row{ID: 1, TankID: &tankID})
	f.seedFish(t, fish.Row{ID: 2, TankID: &tankID})
	f.seedFish(t, fish.Row{ID: 3, Owner: other})
	f.sim.SetTankState(1, chain.TankState{Owner: owner, Capacity: 10})

	if _, err := f.svc.Breed(ctx, owner, 1, 1); !errs.IsValidation(err) {
		t.Fatalf("self breed: %v", err)
	}
	if _, err := f.svc.Breed(ctx, owner, 1, 3); !errs.IsValidation(err) {
		t.Fatalf("foreign fish: %v", err)
	}

	// Both fish exist but are babies.
	if _, err := f.svc.Breed(ctx, owner, 1, 2); !errs.IsValidation(err) {
		t.Fatalf("non adult: %v", err)
	}

	// Adult but not flagged ready.
	f.sim.SetFishState(1, chain.FishState{XP: 400, ReadyToBreed: false})
	f.sim.SetFishState(2, breedReady())
	if _, err := f.svc.Breed(ctx, owner, 1, 2); !errs.IsValidation(err) || !strings.Contains(err.Error(), "ready") {
		t.Fatalf("not ready: %v", err)
	}

	f.sim.SetFishState(1, breedReady())
	if _, err := f.svc.Breed(ctx, owner, 1, 99); !errs.IsNotFound(err) {
		t.Fatalf("unknown fish: %v", err)
	}
}

func TestBreedFullTankConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tk := f.seedTank(t, 1)
	tankID := tk.ID
	f.seedFish(t, fish.Row{ID: 1, TankID: &tankID})
	f.seedFish(t, fish.Row{ID: 2, TankID: &tankID})
	f.sim.SetFishState(1, breedReady())
	f.sim.SetFishState(2, breedReady())
	f.sim.SetTankState(1, chain.TankState{Owner: owner, Capacity: 2})

	_, err := f.svc.Breed(ctx, owner, 1, 2)
	if !errs.IsConflict(err) {
		t.Fatalf("expected capacity conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 of 2") {
		t.Fatalf("conflict must report occupancy: %v", err)
	}
}

func TestBreedWithoutTank(t *testing.T) {
	f := newFixture(t)
	f.seedFish(t, fish.Row{ID: 1})
	f.seedFish(t, fish.Row{ID: 2})
	f.sim.SetFishState(1, breedReady())
	f.sim.SetFishState(2, breedReady())

	if _, err := f.svc.Breed(context.Background(), owner, 1, 2); !errs.IsNotFound(err) {
		t.Fatalf("expected not found for missing tank, got %v", err)
	}
}

func TestGetMergesChainState(t *testing.T) {
	f := newFixture(t)
	f.seedFish(t, fish.Row{ID: 1, Species: "Guppy"})
	f.sim.SetFishState(1, chain.FishState{XP: 155, Hunger: 30, ReadyToBreed: false, DNA: "cafe"})

	got, err := f.svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Species != "Guppy" || got.XP != 155 || got.State != fish.StateYoungAdult || got.DNA != "cafe" {
		t.Fatalf("merge wrong: %+v", got)
	}

	f.sim.SetFailure("QueryFish", errors.New("rpc down"))
	if _, err := f.svc.Get(context.Background(), 1); !errs.IsOnChain(err) {
		t.Fatalf("expected on-chain error, got %v", err)
	}
}
