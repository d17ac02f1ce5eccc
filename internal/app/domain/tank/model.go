// Package tank defines the tank entity.
package tank

import "time"

// Row is the off-chain projection of a tank.
type Row struct {
	ID        int64
	Owner     string
	Name      string
	SpriteURL string
	CreatedAt time.Time
}

// Tank is the merged view: the off-chain row combined with the
// ledger-declared capacity, the ceiling on the number of fish the tank may
// house.
type Tank struct {
	Row
	Capacity int64
}
