// Package recon defines the reconciliation queue entry recorded for every
// on-chain transaction awaiting confirmation.
package recon

import "time"

// EntityType names the entity a reconciliation entry refers to.
type EntityType string

const (
	EntityPlayer     EntityType = "player"
	EntityFish       EntityType = "fish"
	EntityTank       EntityType = "tank"
	EntityDecoration EntityType = "decoration"
)

// Status is the confirmation state of a tracked transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry is one tracked on-chain transaction. TxID is unique; EntityID is
// the wallet address for player entries and the numeric id rendered as a
// string for the others.
type Entry struct {
	TxID       string
	EntityType EntityType
	EntityID   string
	Status     Status
	RetryCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
