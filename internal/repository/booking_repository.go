package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

const bookingColumns = `id, user_id, trek_key, slot_id, trek_date, participants, status, payment_status,
	total_amount, discount_amount, voucher_id, customer_name, customer_email, customer_phone, nationality,
	special_requests, accept_terms, accept_privacy, admin_notes, cancellation_reason, cancelled_by,
	created_at, updated_at, approved_at, confirmed_at, cancelled_at, completed_at`

const defaultListLimit = 100

// BookingRepository provides data access for bookings using pgx.
type BookingRepository struct {
	pool database.TxQuerier
}

// NewBookingRepository creates a new BookingRepository with the given pool.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// NewBookingRepositoryWithPool creates a new BookingRepository with a custom pool interface.
// This is primarily used for testing.
func NewBookingRepositoryWithPool(pool database.TxQuerier) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) q(tx database.TxQuerier) database.TxQuerier {
	if tx == nil {
		return r.pool
	}
	return tx
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.TrekKey, &b.SlotID, &b.TrekDate, &b.Participants, &b.Status, &b.PaymentStatus,
		&b.TotalAmount, &b.DiscountAmount, &b.VoucherID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.Nationality, &b.SpecialRequests, &b.AcceptTerms, &b.AcceptPrivacy, &b.AdminNotes,
		&b.CancellationReason, &b.CancelledBy,
		&b.CreatedAt, &b.UpdatedAt, &b.ApprovedAt, &b.ConfirmedAt, &b.CancelledAt, &b.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert inserts a new booking within a transaction.
func (r *BookingRepository) Insert(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	query := `INSERT INTO bookings (id, user_id, trek_key, slot_id, trek_date, participants, status, payment_status,
			total_amount, discount_amount, voucher_id, customer_name, customer_email, customer_phone, nationality,
			special_requests, accept_terms, accept_privacy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`

	err := r.q(tx).QueryRow(ctx, query,
		b.ID, b.UserID, b.TrekKey, b.SlotID, b.TrekDate, b.Participants, b.Status, b.PaymentStatus,
		b.TotalAmount, b.DiscountAmount, b.VoucherID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.Nationality, b.SpecialRequests, b.AcceptTerms, b.AcceptPrivacy,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by id. Returns nil, nil when it does not exist.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// GetForUpdate retrieves a booking with a row lock.
// Returns service.ErrBookingNotFound if the booking doesn't exist.
func (r *BookingRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	b, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking for update %s: %w", id, err)
	}
	return b, nil
}

// Update persists the lifecycle and administrative fields of a booking.
func (r *BookingRepository) Update(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	query := `UPDATE bookings SET status = $2, payment_status = $3, admin_notes = $4, cancellation_reason = $5,
			cancelled_by = $6, approved_at = $7, confirmed_at = $8, cancelled_at = $9, completed_at = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.q(tx).QueryRow(ctx, query, b.ID, b.Status, b.PaymentStatus, b.AdminNotes, b.CancellationReason,
		b.CancelledBy, b.ApprovedAt, b.ConfirmedAt, b.CancelledAt, b.CompletedAt).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrBookingNotFound
		}
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	return nil
}

// SumHeldParticipants sums participants of the slot's bookings in the counting set.
func (r *BookingRepository) SumHeldParticipants(ctx context.Context, q database.TxQuerier, slotID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(SUM(participants), 0) FROM bookings WHERE slot_id = $1 AND status = ANY($2)`

	var held int
	if err := r.q(q).QueryRow(ctx, query, slotID, countingStatuses()).Scan(&held); err != nil {
		return 0, fmt.Errorf("sum held participants for slot %s: %w", slotID, err)
	}
	return held, nil
}

// CountBySlot counts every booking referencing the slot, whatever its status.
func (r *BookingRepository) CountBySlot(ctx context.Context, tx database.TxQuerier, slotID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE slot_id = $1`

	var n int
	if err := r.q(tx).QueryRow(ctx, query, slotID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings for slot %s: %w", slotID, err)
	}
	return n, nil
}

// List returns bookings matching the filter, newest first.
// On success, returns an empty slice (not nil) when nothing matches.
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.TrekKey != "" {
		add("trek_key = $%d", filter.TrekKey)
	}
	if filter.SlotID != nil {
		add("slot_id = $%d", *filter.SlotID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	args = append(args, limit, max(filter.Offset, 0))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}
	return out, nil
}
