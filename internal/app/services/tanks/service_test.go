package tanks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/idalloc"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
	"github.com/NeoReef/game-backend/internal/chain"
)

const owner = "0x00112233445566778899aabbccddeeff00112233"

func newFixture(t *testing.T) (*memory.Store, *chain.Simulator, *Service) {
	t.Helper()
	store := memory.New()
	sim := chain.NewSimulator(
		idalloc.New("fish", store.MaxFishID, nil),
		idalloc.New("tank", store.MaxTankID, nil),
	)
	return store, sim, New(store, store, sim, nil)
}

func TestGetMergesCapacity(t *testing.T) {
	ctx := context.Background()
	store, sim, svc := newFixture(t)

	if _, err := store.CreateTank(ctx, tank.Row{ID: 1, Owner: owner, Name: "reef"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sim.SetTankState(1, chain.TankState{Owner: owner, Capacity: 12})

	got, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "reef" || got.Capacity != 12 {
		t.Fatalf("merge wrong: %+v", got)
	}

	if _, err := svc.Get(ctx, 42); !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, 0); !errs.IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}

	sim.SetFailure("QueryTank", errors.New("rpc down"))
	if _, err := svc.Get(ctx, 1); !errs.IsOnChain(err) {
		t.Fatalf("expected on-chain error, got %v", err)
	}
}

func TestCheckCapacity(t *testing.T) {
	ctx := context.Background()
	store, sim, svc := newFixture(t)

	if _, err := store.CreateTank(ctx, tank.Row{ID: 1, Owner: owner}); err != nil {
		t.Fatalf("seed tank: %v", err)
	}
	sim.SetTankState(1, chain.TankState{Owner: owner, Capacity: 3})
	tankID := int64(1)
	for id := int64(1); id <= 2; id++ {
		if _, err := store.CreateFish(ctx, fish.Row{ID: id, Owner: owner, TankID: &tankID}); err != nil {
			t.Fatalf("seed fish: %v", err)
		}
	}

	if err := svc.CheckCapacity(ctx, 1, 1); err != nil {
		t.Fatalf("one free slot: %v", err)
	}

	err := svc.CheckCapacity(ctx, 1, 2)
	if !errs.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 of 3") {
		t.Fatalf("conflict must report occupancy: %v", err)
	}

	if err := svc.CheckCapacity(ctx, 1, 0); !errs.IsValidation(err) {
		t.Fatalf("expected validation for non-positive additional, got %v", err)
	}
}
