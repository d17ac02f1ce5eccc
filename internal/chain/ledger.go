package chain

import "context"

// FishState is the ledger projection of a fish.
type FishState struct {
	XP           float64
	Hunger       int64
	ReadyToBreed bool
	DNA          string
}

// TankState is the ledger projection of a tank.
type TankState struct {
	Owner    string
	Capacity int64
}

// DecorationState is the ledger projection of a decoration.
type DecorationState struct {
	Owner        string
	Kind         string
	XPMultiplier int64
}

// MintReceipt reports a mint: the transaction hash and the token id the
// contract assigned.
type MintReceipt struct {
	TxID    string
	TokenID int64
}

// Ledger is the on-chain capability consumed by the domain services. Every
// mutating call returns the transaction hash; all calls are fallible and
// return no partial results.
type Ledger interface {
	RegisterPlayer(ctx context.Context, address string) (string, error)
	GrantPlayerXP(ctx context.Context, address string, amount float64) (string, error)

	MintTank(ctx context.Context, owner string, capacity int64) (MintReceipt, error)
	MintFish(ctx context.Context, owner, species, dna string) (MintReceipt, error)
	GrantFishXP(ctx context.Context, fishID int64, amount float64) (string, error)
	BreedFish(ctx context.Context, fish1ID, fish2ID int64) (MintReceipt, error)

	ActivateDecoration(ctx context.Context, id int64) (string, error)
	DeactivateDecoration(ctx context.Context, id int64) (string, error)

	QueryFish(ctx context.Context, id int64) (FishState, error)
	QueryTank(ctx context.Context, id int64) (TankState, error)
	QueryDecoration(ctx context.Context, id int64) (DecorationState, error)
}
