// Package player defines the player entity.
package player

import (
	"regexp"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/util"

	"github.com/NeoReef/game-backend/internal/app/errs"
)

// Player is the stored player record, keyed by wallet address. The counter
// fields mirror the ledger values; the ledger remains the source of truth
// and the mirror is refreshed by the workflows that change them.
type Player struct {
	Address          string
	AvatarURL        string
	TotalXP          float64
	FishCount        int64
	TournamentsWon   int64
	Reputation       int64
	OffspringCreated int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress checks the wallet address format: "0x" followed by a
// 20-byte hex script hash.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return errs.Validationf("invalid wallet address %q", address)
	}
	if _, err := util.Uint160DecodeStringLE(strings.TrimPrefix(address, "0x")); err != nil {
		return errs.Validationf("invalid wallet address %q: %v", address, err)
	}
	return nil
}
