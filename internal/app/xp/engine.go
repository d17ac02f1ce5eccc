// Package xp implements the XP calculation pipeline: base XP scaling,
// decoration-multiplier aggregation and player totals.
package xp

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/storage"
)

// CalcFishXP scales base XP by a percentage multiplier. A negative
// multiplier is a debuff; the result is deliberately not clamped.
func CalcFishXP(base, multiplierPercent float64) float64 {
	return base * (1 + multiplierPercent/100)
}

// CalcPlayerXP sums per-fish XP grants. An empty list yields zero.
func CalcPlayerXP(amounts []float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	return total
}

// Engine resolves the tank-wide decoration multiplier. It is the only part
// of the pipeline with I/O.
type Engine struct {
	tanks       storage.TankStore
	decorations storage.DecorationStore
}

// NewEngine constructs an Engine over the given stores.
func NewEngine(tanks storage.TankStore, decorations storage.DecorationStore) *Engine {
	return &Engine{tanks: tanks, decorations: decorations}
}

// ActiveDecorationMultiplier resolves the tank's owner and sums the bonus
// percentages of the owner's active decorations, returned as a decimal
// multiplier (5% + 10% -> 0.15). Unknown decoration kinds contribute zero.
func (e *Engine) ActiveDecorationMultiplier(ctx context.Context, tankID int64) (float64, error) {
	if tankID <= 0 {
		return 0, errs.Validationf("invalid tank id %d", tankID)
	}

	tankRow, err := e.tanks.GetTankRow(ctx, tankID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, errs.NotFoundf("tank %d not found", tankID)
		}
		return 0, fmt.Errorf("load tank %d: %w", tankID, err)
	}

	rows, err := e.decorations.ListActiveDecorationsByOwner(ctx, tankRow.Owner)
	if err != nil {
		return 0, fmt.Errorf("load decorations for %s: %w", tankRow.Owner, err)
	}

	var percent int64
	for _, row := range rows {
		percent += row.Kind.Percent()
	}
	return float64(percent) / 100, nil
}
