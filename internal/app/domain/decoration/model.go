// Package decoration defines the decoration entity and its XP bonuses.
package decoration

import "time"

// Kind is the on-chain decoration category.
type Kind string

const (
	KindPlant      Kind = "Plant"
	KindStatue     Kind = "Statue"
	KindBackground Kind = "Background"
	KindOrnament   Kind = "Ornament"
)

// kindPercent maps a kind to its XP bonus percentage. Contributions are
// summed, not compounded, across a player's active decorations.
var kindPercent = map[Kind]int64{
	KindPlant:      5,
	KindStatue:     10,
	KindBackground: 7,
	KindOrnament:   3,
}

// Percent returns the XP bonus percentage for the kind. Unknown kinds
// contribute zero.
func (k Kind) Percent() int64 {
	return kindPercent[k]
}

// Row is the off-chain projection of a decoration. Kind mirrors the
// ledger value so the multiplier pipeline needs no chain round trip.
type Row struct {
	ID        int64
	Owner     string
	Kind      Kind
	IsActive  bool
	ImageURL  string
	CreatedAt time.Time
}

// Decoration is the merged view: the off-chain row combined with the
// ledger-declared multiplier percentage.
type Decoration struct {
	Row
	XPMultiplier int64
}
