// Package fish defines the fish entity and its evolution states.
package fish

import "time"

// State classifies a fish by accumulated XP.
type State string

const (
	StateBaby       State = "Baby"
	StateJuvenile   State = "Juvenile"
	StateYoungAdult State = "YoungAdult"
	StateAdult      State = "Adult"
)

// Evolution thresholds, inclusive on the lower edge.
const (
	JuvenileXP   = 50
	YoungAdultXP = 150
	AdultXP      = 350
)

// StateForXP classifies xp into an evolution state. Negative xp is treated
// as zero.
func StateForXP(xp float64) State {
	if xp < 0 {
		xp = 0
	}
	switch {
	case xp < JuvenileXP:
		return StateBaby
	case xp < YoungAdultXP:
		return StateJuvenile
	case xp < AdultXP:
		return StateYoungAdult
	default:
		return StateAdult
	}
}

// Row is the off-chain projection of a fish. Parent1ID/Parent2ID form a
// DAG over fish ids; TankID is nil for a fish not housed in any tank.
type Row struct {
	ID        int64
	Owner     string
	Species   string
	ImageURL  string
	TankID    *int64
	Parent1ID *int64
	Parent2ID *int64
	CreatedAt time.Time
}

// OnChain is the ledger projection of a fish.
type OnChain struct {
	XP           float64
	State        State
	Hunger       int64
	ReadyToBreed bool
	DNA          string
}

// Fish is the merged view returned to callers: the off-chain row combined
// with the current ledger state.
type Fish struct {
	Row
	OnChain
}
