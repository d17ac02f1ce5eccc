// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/recon"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.FishStore = (*Store)(nil)
var _ storage.TankStore = (*Store)(nil)
var _ storage.DecorationStore = (*Store)(nil)
var _ storage.ReconciliationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// translate maps driver errors onto the storage sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	}
	return err
}

// Row types with db tags; the domain structs stay tag-free.

type playerRow struct {
	Address          string    `db:"address"`
	AvatarURL        string    `db:"avatar_url"`
	TotalXP          float64   `db:"total_xp"`
	FishCount        int64     `db:"fish_count"`
	TournamentsWon   int64     `db:"tournaments_won"`
	Reputation       int64     `db:"reputation"`
	OffspringCreated int64     `db:"offspring_created"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r playerRow) domain() player.Player {
	return player.Player{
		Address:          r.Address,
		AvatarURL:        r.AvatarURL,
		TotalXP:          r.TotalXP,
		FishCount:        r.FishCount,
		TournamentsWon:   r.TournamentsWon,
		Reputation:       r.Reputation,
		OffspringCreated: r.OffspringCreated,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type fishRow struct {
	ID        int64          `db:"id"`
	Owner     string         `db:"owner"`
	Species   string         `db:"species"`
	ImageURL  string         `db:"image_url"`
	TankID    sql.NullInt64  `db:"tank_id"`
	Parent1ID sql.NullInt64  `db:"parent1_id"`
	Parent2ID sql.NullInt64  `db:"parent2_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r fishRow) domain() fish.Row {
	return fish.Row{
		ID:        r.ID,
		Owner:     r.Owner,
		Species:   r.Species,
		ImageURL:  r.ImageURL,
		TankID:    nullableID(r.TankID),
		Parent1ID: nullableID(r.Parent1ID),
		Parent2ID: nullableID(r.Parent2ID),
		CreatedAt: r.CreatedAt,
	}
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func nullID(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

type tankRow struct {
	ID        int64     `db:"id"`
	Owner     string    `db:"owner"`
	Name      string    `db:"name"`
	SpriteURL string    `db:"sprite_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r tankRow) domain() tank.Row {
	return tank.Row{ID: r.ID, Owner: r.Owner, Name: r.Name, SpriteURL: r.SpriteURL, CreatedAt: r.CreatedAt}
}

type decorationRow struct {
	ID        int64     `db:"id"`
	Owner     string    `db:"owner"`
	Kind      string    `db:"kind"`
	IsActive  bool      `db:"is_active"`
	ImageURL  string    `db:"image_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r decorationRow) domain() decoration.Row {
	return decoration.Row{
		ID:        r.ID,
		Owner:     r.Owner,
		Kind:      decoration.Kind(r.Kind),
		IsActive:  r.IsActive,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
	}
}

type reconRow struct {
	TxID       string    `db:"tx_id"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Status     string    `db:"status"`
	RetryCount int64     `db:"retry_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r reconRow) domain() recon.Entry {
	return recon.Entry{
		TxID:       r.TxID,
		EntityType: recon.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Status:     recon.Status(r.Status),
		RetryCount: r.RetryCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// PlayerStore ----------------------------------------------------------------

func (s *Store) CreatePlayer(ctx context.Context, p player.Player) (player.Player, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (address, avatar_url, total_xp, fish_count, tournaments_won, reputation, offspring_created, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.Address, p.AvatarURL, p.TotalXP, p.FishCount, p.TournamentsWon, p.Reputation, p.OffspringCreated, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return player.Player{}, translate(err)
	}
	return p, nil
}

func (s *Store) GetPlayer(ctx context.Context, address string) (player.Player, error) {
	var row playerRow
	err := s.db.GetContext(ctx, &row, `
		SELECT address, avatar_url, total_xp, fish_count, tournaments_won, reputation, offspring_created, created_at, updated_at
		FROM players WHERE address = $1
	`, address)
	if err != nil {
		return player.Player{}, translate(err)
	}
	return row.domain(), nil
}

func (s *Store) UpdatePlayer(ctx context.Context, p player.Player) (player.Player, error) {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET avatar_url = $2, total_xp = $3, fish_count = $4, tournaments_won = $5, reputation = $6, offspring_created = $7, updated_at = $8
		WHERE address = $1
	`, p.Address, p.AvatarURL, p.TotalXP, p.FishCount, p.TournamentsWon, p.Reputation, p.OffspringCreated, p.UpdatedAt)
	if err != nil {
		return player.Player{}, translate(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return player.Player{}, fmt.Errorf("player %s: %w", p.Address, storage.ErrNotFound)
	}
	return p, nil
}

// FishStore ------------------------------------------------------------------

func (s *Store) CreateFish(ctx context.Context, row fish.Row) (fish.Row, error) {
	row.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fish (id, owner, species, image_url, tank_id, parent1_id, parent2_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.ID, row.Owner, row.Species, row.ImageURL, nullID(row.TankID), nullID(row.Parent1ID), nullID(row.Parent2ID), row.CreatedAt)
	if err != nil {
		return fish.Row{}, translate(err)
	}
	return row, nil
}

const fishColumns = `id, owner, species, image_url, tank_id, parent1_id, parent2_id, created_at`

func (s *Store) GetFishRow(ctx context.Context, id int64) (fish.Row, error) {
	var row fishRow
	err := s.db.GetContext(ctx, &row, `SELECT `+fishColumns+` FROM fish WHERE id = $1`, id)
	if err != nil {
		return fish.Row{}, translate(err)
	}
	return row.domain(), nil
}

func (s *Store) GetFishRows(ctx context.Context, ids []int64) ([]fish.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+fishColumns+` FROM fish WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []fishRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	return fishDomain(rows), nil
}

func (s *Store) ListFishByOwner(ctx context.Context, owner string) ([]fish.Row, error) {
	var rows []fishRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+fishColumns+` FROM fish WHERE owner = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, translate(err)
	}
	return fishDomain(rows), nil
}

func (s *Store) ListFishByParent(ctx context.Context, parentID int64) ([]fish.Row, error) {
	var rows []fishRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+fishColumns+` FROM fish WHERE parent1_id = $1 OR parent2_id = $1 ORDER BY id
	`, parentID)
	if err != nil {
		return nil, translate(err)
	}
	return fishDomain(rows), nil
}

func (s *Store) UpdateFishRow(ctx context.Context, row fish.Row) (fish.Row, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE fish SET owner = $2, species = $3, image_url = $4, tank_id = $5, parent1_id = $6, parent2_id = $7
		WHERE id = $1
	`, row.ID, row.Owner, row.Species, row.ImageURL, nullID(row.TankID), nullID(row.Parent1ID), nullID(row.Parent2ID))
	if err != nil {
		return fish.Row{}, translate(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fish.Row{}, fmt.Errorf("fish %d: %w", row.ID, storage.ErrNotFound)
	}
	return row, nil
}

func (s *Store) DeleteFish(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fish WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) CountFishByOwner(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM fish WHERE owner = $1`, owner)
	return n, translate(err)
}

func (s *Store) CountFishInTank(ctx context.Context, tankID int64) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM fish WHERE tank_id = $1`, tankID)
	return n, translate(err)
}

func (s *Store) MaxFishID(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(id), 0) FROM fish`)
	return max, translate(err)
}

func fishDomain(rows []fishRow) []fish.Row {
	out := make([]fish.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}

// TankStore ------------------------------------------------------------------

func (s *Store) CreateTank(ctx context.Context, row tank.Row) (tank.Row, error) {
	row.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tanks (id, owner, name, sprite_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, row.ID, row.Owner, row.Name, row.SpriteURL, row.CreatedAt)
	if err != nil {
		return tank.Row{}, translate(err)
	}
	return row, nil
}

func (s *Store) GetTankRow(ctx context.Context, id int64) (tank.Row, error) {
	var row tankRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner, name, sprite_url, created_at FROM tanks WHERE id = $1
	`, id)
	if err != nil {
		return tank.Row{}, translate(err)
	}
	return row.domain(), nil
}

func (s *Store) ListTanksByOwner(ctx context.Context, owner string) ([]tank.Row, error) {
	var rows []tankRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, owner, name, sprite_url, created_at FROM tanks WHERE owner = $1 ORDER BY id
	`, owner)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]tank.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) DeleteTank(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tanks WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) CountTanksByOwner(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tanks WHERE owner = $1`, owner)
	return n, translate(err)
}

func (s *Store) MaxTankID(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(id), 0) FROM tanks`)
	return max, translate(err)
}

// DecorationStore ------------------------------------------------------------

func (s *Store) CreateDecoration(ctx context.Context, row decoration.Row) (decoration.Row, error) {
	row.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decorations (id, owner, kind, is_active, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, row.ID, row.Owner, string(row.Kind), row.IsActive, row.ImageURL, row.CreatedAt)
	if err != nil {
		return decoration.Row{}, translate(err)
	}
	return row, nil
}

func (s *Store) GetDecorationRow(ctx context.Context, id int64) (decoration.Row, error) {
	var row decorationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner, kind, is_active, image_url, created_at FROM decorations WHERE id = $1
	`, id)
	if err != nil {
		return decoration.Row{}, translate(err)
	}
	return row.domain(), nil
}

func (s *Store) ListDecorationsByOwner(ctx context.Context, owner string) ([]decoration.Row, error) {
	return s.listDecorations(ctx, `
		SELECT id, owner, kind, is_active, image_url, created_at FROM decorations WHERE owner = $1 ORDER BY id
	`, owner)
}

func (s *Store) ListActiveDecorationsByOwner(ctx context.Context, owner string) ([]decoration.Row, error) {
	return s.listDecorations(ctx, `
		SELECT id, owner, kind, is_active, image_url, created_at FROM decorations WHERE owner = $1 AND is_active ORDER BY id
	`, owner)
}

func (s *Store) listDecorations(ctx context.Context, query, owner string) ([]decoration.Row, error) {
	var rows []decorationRow
	if err := s.db.SelectContext(ctx, &rows, query, owner); err != nil {
		return nil, translate(err)
	}
	out := make([]decoration.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) UpdateDecorationRow(ctx context.Context, row decoration.Row) (decoration.Row, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE decorations SET owner = $2, kind = $3, is_active = $4, image_url = $5 WHERE id = $1
	`, row.ID, row.Owner, string(row.Kind), row.IsActive, row.ImageURL)
	if err != nil {
		return decoration.Row{}, translate(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return decoration.Row{}, fmt.Errorf("decoration %d: %w", row.ID, storage.ErrNotFound)
	}
	return row, nil
}

// ReconciliationStore ---------------------------------------------------------

func (s *Store) AppendReconEntry(ctx context.Context, e recon.Entry) (recon.Entry, error) {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_entries (tx_id, entity_type, entity_id, status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.TxID, string(e.EntityType), e.EntityID, string(e.Status), e.RetryCount, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return recon.Entry{}, translate(err)
	}
	return e, nil
}

func (s *Store) ListPendingReconEntries(ctx context.Context, limit int) ([]recon.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []reconRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tx_id, entity_type, entity_id, status, retry_count, created_at, updated_at
		FROM reconciliation_entries
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]recon.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) UpdateReconEntry(ctx context.Context, e recon.Entry) (recon.Entry, error) {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE reconciliation_entries SET status = $2, retry_count = $3, updated_at = $4 WHERE tx_id = $1
	`, e.TxID, string(e.Status), e.RetryCount, e.UpdatedAt)
	if err != nil {
		return recon.Entry{}, translate(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return recon.Entry{}, fmt.Errorf("recon entry %s: %w", e.TxID, storage.ErrNotFound)
	}
	return e, nil
}
