package xp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
)

func TestCalcFishXP(t *testing.T) {
	assert.InDelta(t, 10.0, CalcFishXP(10, 0), 1e-9)
	assert.InDelta(t, 11.8, CalcFishXP(10, 18), 1e-9)
	assert.InDelta(t, 11.5, CalcFishXP(10, 15), 1e-9)
	// Debuffs stay unclamped.
	assert.InDelta(t, 5.0, CalcFishXP(10, -50), 1e-9)
	assert.InDelta(t, -2.0, CalcFishXP(10, -120), 1e-9)
}

func TestCalcPlayerXP(t *testing.T) {
	assert.Zero(t, CalcPlayerXP(nil))
	assert.InDelta(t, 35.4, CalcPlayerXP([]float64{11.8, 11.8, 11.8}), 1e-9)
}

func TestActiveDecorationMultiplier(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store, store)

	const owner = "0x00112233445566778899aabbccddeeff00112233"
	tk, err := store.CreateTank(ctx, tank.Row{ID: 1, Owner: owner, Name: "reef"})
	require.NoError(t, err)

	seed := []struct {
		id     int64
		kind   decoration.Kind
		active bool
	}{
		{1, decoration.KindPlant, true},
		{2, decoration.KindStatue, true},
		{3, decoration.KindOrnament, true},
		{4, decoration.KindBackground, false}, // inactive, must not count
		{5, decoration.Kind("Mystery"), true}, // unknown kind, counts zero
	}
	for _, d := range seed {
		_, err := store.CreateDecoration(ctx, decoration.Row{
			ID: d.id, Owner: owner, Kind: d.kind, IsActive: d.active,
		})
		require.NoError(t, err)
	}

	got, err := engine.ActiveDecorationMultiplier(ctx, tk.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.18, got, 1e-9) // 5% + 10% + 3%
}

func TestActiveDecorationMultiplierErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store, store)

	_, err := engine.ActiveDecorationMultiplier(ctx, 0)
	assert.True(t, errs.IsValidation(err))

	_, err = engine.ActiveDecorationMultiplier(ctx, 42)
	assert.True(t, errs.IsNotFound(err))
}

func TestMultiplierNoActiveDecorations(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store, store)

	const owner = "0x00112233445566778899aabbccddeeff00112233"
	tk, err := store.CreateTank(ctx, tank.Row{ID: 1, Owner: owner})
	require.NoError(t, err)

	got, err := engine.ActiveDecorationMultiplier(ctx, tk.ID)
	require.NoError(t, err)
	assert.Zero(t, got)
}
