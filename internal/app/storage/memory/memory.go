// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/storage"
)

// Store is an in-memory implementation of every storage interface.
type Store struct {
	mu          sync.RWMutex
	players     map[string]player.Player
	fish        map[int64]fish.Row
	tanks       map[int64]tank.Row
	decorations map[int64]decoration.Row
	reconcile   map[string]recon.Entry
	reconOrder  []string
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.FishStore = (*Store)(nil)
var _ storage.TankStore = (*Store)(nil)
var _ storage.DecorationStore = (*Store)(nil)
var _ storage.ReconciliationStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		players:     make(map[string]player.Player),
		fish:        make(map[int64]fish.Row),
		tanks:       make(map[int64]tank.Row),
		decorations: make(map[int64]decoration.Row),
		reconcile:   make(map[string]recon.Entry),
	}
}

// PlayerStore ----------------------------------------------------------------

func (s *Store) CreatePlayer(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[p.Address]; exists {
		return player.Player{}, fmt.Errorf("player %s: %w", p.Address, storage.ErrDuplicate)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.players[p.Address] = p
	return p, nil
}

func (s *Store) GetPlayer(_ context.Context, address string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[address]
	if !ok {
		return player.Player{}, fmt.Errorf("player %s: %w", address, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) UpdatePlayer(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.players[p.Address]
	if !ok {
		return player.Player{}, fmt.Errorf("player %s: %w", p.Address, storage.ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.players[p.Address] = p
	return p, nil
}

// FishStore ------------------------------------------------------------------

func (s *Store) CreateFish(_ context.Context, row fish.Row) (fish.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fish[row.ID]; exists {
		return fish.Row{}, fmt.Errorf("fish %d: %w", row.ID, storage.ErrDuplicate)
	}
	row.CreatedAt = time.Now().UTC()
	s.fish[row.ID] = row
	return row, nil
}

func (s *Store) GetFishRow(_ context.Context, id int64) (fish.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.fish[id]
	if !ok {
		return fish.Row{}, fmt.Errorf("fish %d: %w", id, storage.ErrNotFound)
	}
	return row, nil
}

func (s *Store) GetFishRows(_ context.Context, ids []int64) ([]fish.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]fish.Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := s.fish[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *Store) ListFishByOwner(_ context.Context, owner string) ([]fish.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []fish.Row
	for _, row := range s.fish {
		if row.Owner == owner {
			rows = append(rows, row)
		}
	}
	sortFish(rows)
	return rows, nil
}

func (s *Store) ListFishByParent(_ context.Context, parentID int64) ([]fish.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []fish.Row
	for _, row := range s.fish {
		if (row.Parent1ID != nil && *row.Parent1ID == parentID) ||
			(row.Parent2ID != nil && *row.Parent2ID == parentID) {
			rows = append(rows, row)
		}
	}
	sortFish(rows)
	return rows, nil
}

func (s *Store) UpdateFishRow(_ context.Context, row fish.Row) (fish.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.fish[row.ID]
	if !ok {
		return fish.Row{}, fmt.Errorf("fish %d: %w", row.ID, storage.ErrNotFound)
	}
	row.CreatedAt = existing.CreatedAt
	s.fish[row.ID] = row
	return row, nil
}

func (s *Store) DeleteFish(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fish, id)
	return nil
}

func (s *Store) CountFishByOwner(_ context.Context, owner string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, row := range s.fish {
		if row.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountFishInTank(_ context.Context, tankID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, row := range s.fish {
		if row.TankID != nil && *row.TankID == tankID {
			n++
		}
	}
	return n, nil
}

func (s *Store) MaxFishID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for id := range s.fish {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// TankStore ------------------------------------------------------------------

func (s *Store) CreateTank(_ context.Context, row tank.Row) (tank.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tanks[row.ID]; exists {
		return tank.Row{}, fmt.Errorf("tank %d: %w", row.ID, storage.ErrDuplicate)
	}
	row.CreatedAt = time.Now().UTC()
	s.tanks[row.ID] = row
	return row, nil
}

func (s *Store) GetTankRow(_ context.Context, id int64) (tank.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.tanks[id]
	if !ok {
		return tank.Row{}, fmt.Errorf("tank %d: %w", id, storage.ErrNotFound)
	}
	return row, nil
}

func (s *Store) ListTanksByOwner(_ context.Context, owner string) ([]tank.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []tank.Row
	for _, row := range s.tanks {
		if row.Owner == owner {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *Store) DeleteTank(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tanks, id)
	return nil
}

func (s *Store) CountTanksByOwner(_ context.Context, owner string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, row := range s.tanks {
		if row.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) MaxTankID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for id := range s.tanks {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// DecorationStore ------------------------------------------------------------

func (s *Store) CreateDecoration(_ context.Context, row decoration.Row) (decoration.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.decorations[row.ID]; exists {
		return decoration.Row{}, fmt.Errorf("decoration %d: %w", row.ID, storage.ErrDuplicate)
	}
	row.CreatedAt = time.Now().UTC()
	s.decorations[row.ID] = row
	return row, nil
}

func (s *Store) GetDecorationRow(_ context.Context, id int64) (decoration.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.decorations[id]
	if !ok {
		return decoration.Row{}, fmt.Errorf("decoration %d: %w", id, storage.ErrNotFound)
	}
	return row, nil
}

func (s *Store) ListDecorationsByOwner(_ context.Context, owner string) ([]decoration.Row, error) {
	return s.listDecorations(owner, false)
}

func (s *Store) ListActiveDecorationsByOwner(_ context.Context, owner string) ([]decoration.Row, error) {
	return s.listDecorations(owner, true)
}

func (s *Store) listDecorations(owner string, activeOnly bool) ([]decoration.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []decoration.Row
	for _, row := range s.decorations {
		if row.Owner != owner {
			continue
		}
		if activeOnly && !row.IsActive {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *Store) UpdateDecorationRow(_ context.Context, row decoration.Row) (decoration.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.decorations[row.ID]
	if !ok {
		return decoration.Row{}, fmt.Errorf("decoration %d: %w", row.ID, storage.ErrNotFound)
	}
	row.CreatedAt = existing.CreatedAt
	s.decorations[row.ID] = row
	return row, nil
}

// ReconciliationStore ---------------------------------------------------------

func (s *Store) AppendReconEntry(_ context.Context, e recon.Entry) (recon.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reconcile[e.TxID]; exists {
		return recon.Entry{}, fmt.Errorf("recon entry %s: %w", e.TxID, storage.ErrDuplicate)
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.reconcile[e.TxID] = e
	s.reconOrder = append(s.reconOrder, e.TxID)
	return e, nil
}

func (s *Store) ListPendingReconEntries(_ context.Context, limit int) ([]recon.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []recon.Entry
	for _, txID := range s.reconOrder {
		e := s.reconcile[txID]
		if e.Status != recon.StatusPending {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (s *Store) UpdateReconEntry(_ context.Context, e recon.Entry) (recon.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reconcile[e.TxID]
	if !ok {
		return recon.Entry{}, fmt.Errorf("recon entry %s: %w", e.TxID, storage.ErrNotFound)
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.reconcile[e.TxID] = e
	return e, nil
}

func sortFish(rows []fish.Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
}
