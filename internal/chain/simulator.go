package chain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDSource issues token ids for simulated mints. The id allocator satisfies
// this.
type IDSource interface {
	Next(ctx context.Context) (int64, error)
}

// Simulator is an in-process Ledger used until the game contract is wired
// in, and by tests. It tracks the state written through it; entities it has
// never seen are given plausible defaults rather than an error, matching
// the behaviour of a freshly seeded chain.
type Simulator struct {
	mu        sync.Mutex
	fishIDs   IDSource
	tankIDs   IDSource
	fish      map[int64]FishState
	tanks     map[int64]TankState
	decors    map[int64]DecorationState
	decorOn   map[int64]bool
	playerXP  map[string]float64
	failures  map[string]error
}

var _ Ledger = (*Simulator)(nil)

// NewSimulator creates a Simulator drawing token ids from the given
// sources.
func NewSimulator(fishIDs, tankIDs IDSource) *Simulator {
	return &Simulator{
		fishIDs:  fishIDs,
		tankIDs:  tankIDs,
		fish:     make(map[int64]FishState),
		tanks:    make(map[int64]TankState),
		decors:   make(map[int64]DecorationState),
		decorOn:  make(map[int64]bool),
		playerXP: make(map[string]float64),
		failures: make(map[string]error),
	}
}

// SetFailure makes every subsequent call of the named operation fail with
// err until cleared with a nil err. Used by tests to exercise the
// on-chain failure paths.
func (s *Simulator) SetFailure(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetFishState seeds the simulated chain state for a fish.
func (s *Simulator) SetFishState(id int64, state FishState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fish[id] = state
}

// SetTankState seeds the simulated chain state for a tank.
func (s *Simulator) SetTankState(id int64, state TankState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tanks[id] = state
}

// SetDecorationState seeds the simulated chain state for a decoration.
func (s *Simulator) SetDecorationState(id int64, state DecorationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decors[id] = state
}

func (s *Simulator) fail(op string) error {
	return s.failures[op]
}

func newTxID() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewDNA returns a random genetic string in the format the contract mints
// with.
func NewDNA() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Simulator) RegisterPlayer(_ context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RegisterPlayer"); err != nil {
		return "", err
	}
	if _, ok := s.playerXP[address]; !ok {
		s.playerXP[address] = 0
	}
	return newTxID(), nil
}

func (s *Simulator) GrantPlayerXP(_ context.Context, address string, amount float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GrantPlayerXP"); err != nil {
		return "", err
	}
	s.playerXP[address] += amount
	return newTxID(), nil
}

// PlayerXP reports the simulated on-chain XP total for a player.
func (s *Simulator) PlayerXP(address string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerXP[address]
}

func (s *Simulator) MintTank(ctx context.Context, owner string, capacity int64) (MintReceipt, error) {
	s.mu.Lock()
	fail := s.fail("MintTank")
	s.mu.Unlock()
	if fail != nil {
		return MintReceipt{}, fail
	}

	id, err := s.tankIDs.Next(ctx)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("allocate tank id: %w", err)
	}

	s.mu.Lock()
	s.tanks[id] = TankState{Owner: owner, Capacity: capacity}
	s.mu.Unlock()
	return MintReceipt{TxID: newTxID(), TokenID: id}, nil
}

func (s *Simulator) MintFish(ctx context.Context, owner, species, dna string) (MintReceipt, error) {
	s.mu.Lock()
	fail := s.fail("MintFish")
	s.mu.Unlock()
	if fail != nil {
		return MintReceipt{}, fail
	}

	id, err := s.fishIDs.Next(ctx)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("allocate fish id: %w", err)
	}

	s.mu.Lock()
	s.fish[id] = FishState{XP: 0, Hunger: 50, ReadyToBreed: false, DNA: dna}
	s.mu.Unlock()
	return MintReceipt{TxID: newTxID(), TokenID: id}, nil
}

func (s *Simulator) GrantFishXP(_ context.Context, fishID int64, amount float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GrantFishXP"); err != nil {
		return "", err
	}
	state := s.fishState(fishID)
	state.XP += amount
	s.fish[fishID] = state
	return newTxID(), nil
}

func (s *Simulator) BreedFish(ctx context.Context, fish1ID, fish2ID int64) (MintReceipt, error) {
	s.mu.Lock()
	fail := s.fail("BreedFish")
	s.mu.Unlock()
	if fail != nil {
		return MintReceipt{}, fail
	}

	id, err := s.fishIDs.Next(ctx)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("allocate fish id: %w", err)
	}

	s.mu.Lock()
	s.fish[id] = FishState{XP: 0, Hunger: 50, ReadyToBreed: false, DNA: NewDNA()}
	s.mu.Unlock()
	return MintReceipt{TxID: newTxID(), TokenID: id}, nil
}

func (s *Simulator) ActivateDecoration(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ActivateDecoration"); err != nil {
		return "", err
	}
	s.decorOn[id] = true
	return newTxID(), nil
}

func (s *Simulator) DeactivateDecoration(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeactivateDecoration"); err != nil {
		return "", err
	}
	s.decorOn[id] = false
	return newTxID(), nil
}

func (s *Simulator) QueryFish(_ context.Context, id int64) (FishState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryFish"); err != nil {
		return FishState{}, err
	}
	state := s.fishState(id)
	s.fish[id] = state
	return state, nil
}

func (s *Simulator) fishState(id int64) FishState {
	if state, ok := s.fish[id]; ok {
		return state
	}
	return FishState{XP: 0, Hunger: 50, ReadyToBreed: false, DNA: NewDNA()}
}

func (s *Simulator) QueryTank(_ context.Context, id int64) (TankState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryTank"); err != nil {
		return TankState{}, err
	}
	if state, ok := s.tanks[id]; ok {
		return state, nil
	}
	state := TankState{Capacity: 10}
	s.tanks[id] = state
	return state, nil
}

func (s *Simulator) QueryDecoration(_ context.Context, id int64) (DecorationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryDecoration"); err != nil {
		return DecorationState{}, err
	}
	if state, ok := s.decors[id]; ok {
		return state, nil
	}
	state := DecorationState{Kind: "Plant", XPMultiplier: 5}
	s.decors[id] = state
	return state, nil
}
