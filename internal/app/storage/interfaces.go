// Package storage defines the persistence interfaces for the off-chain
// projections. Implementations live in the memory and postgres
// subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
)

// ErrNotFound is returned when a requested row does not exist. Services
// branch on it, so implementations must return it (possibly wrapped) rather
// than a backend-specific error.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("storage: duplicate key")

// PlayerStore persists player rows, keyed by wallet address.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, p player.Player) (player.Player, error)
	GetPlayer(ctx context.Context, address string) (player.Player, error)
	UpdatePlayer(ctx context.Context, p player.Player) (player.Player, error)
}

// FishStore persists off-chain fish rows.
type FishStore interface {
	CreateFish(ctx context.Context, row fish.Row) (fish.Row, error)
	GetFishRow(ctx context.Context, id int64) (fish.Row, error)
	GetFishRows(ctx context.Context, ids []int64) ([]fish.Row, error)
	ListFishByOwner(ctx context.Context, owner string) ([]fish.Row, error)
	ListFishByParent(ctx context.Context, parentID int64) ([]fish.Row, error)
	UpdateFishRow(ctx context.Context, row fish.Row) (fish.Row, error)
	DeleteFish(ctx context.Context, id int64) error
	CountFishByOwner(ctx context.Context, owner string) (int64, error)
	CountFishInTank(ctx context.Context, tankID int64) (int64, error)
	MaxFishID(ctx context.Context) (int64, error)
}

// TankStore persists off-chain tank rows.
type TankStore interface {
	CreateTank(ctx context.Context, row tank.Row) (tank.Row, error)
	GetTankRow(ctx context.Context, id int64) (tank.Row, error)
	ListTanksByOwner(ctx context.Context, owner string) ([]tank.Row, error)
	DeleteTank(ctx context.Context, id int64) error
	CountTanksByOwner(ctx context.Context, owner string) (int64, error)
	MaxTankID(ctx context.Context) (int64, error)
}

// DecorationStore persists off-chain decoration rows.
type DecorationStore interface {
	CreateDecoration(ctx context.Context, row decoration.Row) (decoration.Row, error)
	GetDecorationRow(ctx context.Context, id int64) (decoration.Row, error)
	ListDecorationsByOwner(ctx context.Context, owner string) ([]decoration.Row, error)
	ListActiveDecorationsByOwner(ctx context.Context, owner string) ([]decoration.Row, error)
	UpdateDecorationRow(ctx context.Context, row decoration.Row) (decoration.Row, error)
}

// ReconciliationStore persists the append-only reconciliation queue.
type ReconciliationStore interface {
	AppendReconEntry(ctx context.Context, e recon.Entry) (recon.Entry, error)
	ListPendingReconEntries(ctx context.Context, limit int) ([]recon.Entry, error)
	UpdateReconEntry(ctx context.Context, e recon.Entry) (recon.Entry, error)
}
