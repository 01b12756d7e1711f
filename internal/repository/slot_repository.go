package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

const slotColumns = `id, trek_key, date, capacity, booked, status, price, created_at, updated_at`

// SlotRepository provides data access for trek slots using pgx.
type SlotRepository struct {
	pool database.TxQuerier
}

// NewSlotRepository creates a new SlotRepository with the given pool.
func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// NewSlotRepositoryWithPool creates a new SlotRepository with a custom pool interface.
// This is primarily used for testing.
func NewSlotRepositoryWithPool(pool database.TxQuerier) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) q(tx database.TxQuerier) database.TxQuerier {
	if tx == nil {
		return r.pool
	}
	return tx
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var s model.Slot
	err := row.Scan(&s.ID, &s.TrekKey, &s.Date, &s.Capacity, &s.Booked, &s.Status, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert inserts a new slot. Returns service.ErrSlotExists if the trek already has a slot on that date.
func (r *SlotRepository) Insert(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	query := `INSERT INTO slots (id, trek_key, date, capacity, booked, status, price)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		RETURNING booked, created_at, updated_at`

	err := r.q(tx).QueryRow(ctx, query, slot.ID, slot.TrekKey, slot.Date, slot.Capacity, slot.Status, slot.Price).
		Scan(&slot.Booked, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrSlotExists
		}
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts the slot unless the trek already has one on that date.
// Reports whether a row was created.
func (r *SlotRepository) InsertIfAbsent(ctx context.Context, tx database.TxQuerier, slot *model.Slot) (bool, error) {
	query := `INSERT INTO slots (id, trek_key, date, capacity, booked, status, price)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		ON CONFLICT (trek_key, date) DO NOTHING`

	tag, err := r.q(tx).Exec(ctx, query, slot.ID, slot.TrekKey, slot.Date, slot.Capacity, slot.Status, slot.Price)
	if err != nil {
		return false, fmt.Errorf("insert slot %s %s: %w", slot.TrekKey, slot.Date.Format(model.DateLayout), err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a slot by id. Returns nil, nil when the slot does not exist.
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot %s: %w", id, err)
	}
	return slot, nil
}

// GetForUpdate retrieves a slot with a row lock (SELECT FOR UPDATE).
// Returns service.ErrSlotNotFound if the slot doesn't exist.
func (r *SlotRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot for update %s: %w", id, err)
	}
	return slot, nil
}

// FindOpen resolves the open slot of a trek on a date, optionally locking the row.
// Returns service.ErrSlotNotFound when there is no open slot.
func (r *SlotRepository) FindOpen(ctx context.Context, tx database.TxQuerier, trekKey string, date time.Time, lock bool) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE trek_key = $1 AND date = $2 AND status = 'open'`
	if lock {
		query += ` FOR UPDATE`
	}

	slot, err := scanSlot(r.q(tx).QueryRow(ctx, query, trekKey, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrSlotNotFound
		}
		return nil, fmt.Errorf("find open slot %s %s: %w", trekKey, date.Format(model.DateLayout), err)
	}
	return slot, nil
}

// ListIDs returns the ids of every slot of a trek, or of all slots when trekKey is empty.
func (r *SlotRepository) ListIDs(ctx context.Context, trekKey string) ([]uuid.UUID, error) {
	query := `SELECT id FROM slots WHERE ($1 = '' OR trek_key = $1) ORDER BY trek_key, date`

	rows, err := r.pool.Query(ctx, query, trekKey)
	if err != nil {
		return nil, fmt.Errorf("list slot ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan slot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}
	return ids, nil
}

// ListWithHeld returns slots together with the participants held by their
// counting-set bookings, computed in the same statement. Read-only.
func (r *SlotRepository) ListWithHeld(ctx context.Context, trekKey string) ([]model.SlotHeld, error) {
	query := `SELECT s.id, s.trek_key, s.date, s.capacity, s.booked, s.status, s.price, s.created_at, s.updated_at,
			COALESCE(SUM(b.participants) FILTER (WHERE b.status = ANY($2)), 0) AS held
		FROM slots s
		LEFT JOIN bookings b ON b.slot_id = s.id
		WHERE ($1 = '' OR s.trek_key = $1)
		GROUP BY s.id
		ORDER BY s.trek_key, s.date`

	rows, err := r.pool.Query(ctx, query, trekKey, countingStatuses())
	if err != nil {
		return nil, fmt.Errorf("list slots with held count: %w", err)
	}
	defer rows.Close()

	out := []model.SlotHeld{}
	for rows.Next() {
		var sh model.SlotHeld
		s := &sh.Slot
		if err := rows.Scan(&s.ID, &s.TrekKey, &s.Date, &s.Capacity, &s.Booked, &s.Status, &s.Price,
			&s.CreatedAt, &s.UpdatedAt, &sh.Held); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}
	return out, nil
}

// Update writes the operator-editable slot fields. The booked counter is never touched here.
func (r *SlotRepository) Update(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	query := `UPDATE slots SET date = $2, capacity = $3, status = $4, price = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.q(tx).QueryRow(ctx, query, slot.ID, slot.Date, slot.Capacity, slot.Status, slot.Price).Scan(&slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrSlotNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrSlotExists
		}
		return fmt.Errorf("update slot %s: %w", slot.ID, err)
	}
	return nil
}

// UpdateBooked overwrites the cached booked counter. Only the reconciler calls this.
func (r *SlotRepository) UpdateBooked(ctx context.Context, tx database.TxQuerier, id uuid.UUID, booked int) error {
	query := `UPDATE slots SET booked = $2, updated_at = now() WHERE id = $1`

	tag, err := r.q(tx).Exec(ctx, query, id, booked)
	if err != nil {
		return fmt.Errorf("update booked for slot %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrSlotNotFound
	}
	return nil
}

// Delete removes a slot. Returns service.ErrSlotHasBookings when bookings still reference it.
func (r *SlotRepository) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	query := `DELETE FROM slots WHERE id = $1`

	tag, err := r.q(tx).Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return service.ErrSlotHasBookings
		}
		return fmt.Errorf("delete slot %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrSlotNotFound
	}
	return nil
}

func countingStatuses() []string {
	out := make([]string, len(model.CountingStatuses))
	for i, s := range model.CountingStatuses {
		out[i] = string(s)
	}
	return out
}
