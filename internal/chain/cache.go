package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/NeoReef/game-backend/pkg/logger"
)

// CachedLedger decorates a Ledger with a short-TTL redis read-through cache
// on the query operations. Mutations pass through and invalidate the entry
// for the touched entity. Cache failures degrade to the underlying ledger;
// they are logged, never surfaced.
type CachedLedger struct {
	Ledger
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewCachedLedger wraps next with a redis cache.
func NewCachedLedger(next Ledger, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedLedger {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("chain-cache")
	}
	return &CachedLedger{Ledger: next, rdb: rdb, ttl: ttl, log: log}
}

func fishKey(id int64) string       { return fmt.Sprintf("ledger:fish:%d", id) }
func tankKey(id int64) string       { return fmt.Sprintf("ledger:tank:%d", id) }
func decorationKey(id int64) string { return fmt.Sprintf("ledger:decoration:%d", id) }

func (c *CachedLedger) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnf("cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warnf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *CachedLedger) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warnf("cache set %s: %v", key, err)
	}
}

func (c *CachedLedger) invalidate(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warnf("cache del %s: %v", key, err)
	}
}

func (c *CachedLedger) QueryFish(ctx context.Context, id int64) (FishState, error) {
	var state FishState
	if c.lookup(ctx, fishKey(id), &state) {
		return state, nil
	}
	state, err := c.Ledger.QueryFish(ctx, id)
	if err != nil {
		return FishState{}, err
	}
	c.store(ctx, fishKey(id), state)
	return state, nil
}

func (c *CachedLedger) QueryTank(ctx context.Context, id int64) (TankState, error) {
	var state TankState
	if c.lookup(ctx, tankKey(id), &state) {
		return state, nil
	}
	state, err := c.Ledger.QueryTank(ctx, id)
	if err != nil {
		return TankState{}, err
	}
	c.store(ctx, tankKey(id), state)
	return state, nil
}

func (c *CachedLedger) QueryDecoration(ctx context.Context, id int64) (DecorationState, error) {
	var state DecorationState
	if c.lookup(ctx, decorationKey(id), &state) {
		return state, nil
	}
	state, err := c.Ledger.QueryDecoration(ctx, id)
	if err != nil {
		return DecorationState{}, err
	}
	c.store(ctx, decorationKey(id), state)
	return state, nil
}

func (c *CachedLedger) GrantFishXP(ctx context.Context, fishID int64, amount float64) (string, error) {
	txID, err := c.Ledger.GrantFishXP(ctx, fishID, amount)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, fishKey(fishID))
	return txID, nil
}

func (c *CachedLedger) BreedFish(ctx context.Context, fish1ID, fish2ID int64) (MintReceipt, error) {
	receipt, err := c.Ledger.BreedFish(ctx, fish1ID, fish2ID)
	if err != nil {
		return MintReceipt{}, err
	}
	// Breeding flips the parents' ready flag on chain.
	c.invalidate(ctx, fishKey(fish1ID))
	c.invalidate(ctx, fishKey(fish2ID))
	return receipt, nil
}

func (c *CachedLedger) ActivateDecoration(ctx context.Context, id int64) (string, error) {
	txID, err := c.Ledger.ActivateDecoration(ctx, id)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, decorationKey(id))
	return txID, nil
}

func (c *CachedLedger) DeactivateDecoration(ctx context.Context, id int64) (string, error) {
	txID, err := c.Ledger.DeactivateDecoration(ctx, id)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, decorationKey(id))
	return txID, nil
}
