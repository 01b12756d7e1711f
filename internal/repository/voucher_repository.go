package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

const voucherColumns = `id, code, description, discount_percent, valid_until, user_id, max_uses, use_count,
	is_used, used_at, used_by, used_booking_id, minimum_amount, maximum_discount, created_at`

// VoucherRepository provides data access for vouchers using pgx.
type VoucherRepository struct {
	pool database.TxQuerier
}

// NewVoucherRepository creates a new VoucherRepository with the given pool.
func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

// NewVoucherRepositoryWithPool creates a new VoucherRepository with a custom pool interface.
// This is primarily used for testing.
func NewVoucherRepositoryWithPool(pool database.TxQuerier) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Description, &v.DiscountPercent, &v.ValidUntil, &v.UserID, &v.MaxUses,
		&v.UseCount, &v.IsUsed, &v.UsedAt, &v.UsedBy, &v.UsedBookingID, &v.MinimumAmount, &v.MaximumDiscount,
		&v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Insert inserts a new voucher. Returns service.ErrVoucherExists if the code is taken.
func (r *VoucherRepository) Insert(ctx context.Context, v *model.Voucher) error {
	query := `INSERT INTO vouchers (id, code, description, discount_percent, valid_until, user_id, max_uses,
			minimum_amount, maximum_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, v.ID, v.Code, v.Description, v.DiscountPercent, v.ValidUntil, v.UserID,
		v.MaxUses, v.MinimumAmount, v.MaximumDiscount).Scan(&v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrVoucherExists
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// GetByCode retrieves a voucher by its normalized code, through tx when given.
// Returns nil, nil when the code does not exist.
func (r *VoucherRepository) GetByCode(ctx context.Context, tx database.TxQuerier, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	q := tx
	if q == nil {
		q = r.pool
	}
	v, err := scanVoucher(q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get voucher %s: %w", code, err)
	}
	return v, nil
}

// Redeem consumes one use of a voucher with a single conditional update, so that
// of two concurrent redeemers of the last use only one succeeds.
// Returns service.ErrVoucherAlreadyUsed when no use was left.
func (r *VoucherRepository) Redeem(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error {
	query := `UPDATE vouchers
		SET use_count = use_count + 1,
			is_used = (use_count + 1 >= max_uses),
			used_at = now(),
			used_by = $3,
			used_booking_id = $2
		WHERE id = $1 AND is_used = false AND use_count < max_uses`

	tag, err := tx.Exec(ctx, query, voucherID, bookingID, userID)
	if err != nil {
		return fmt.Errorf("redeem voucher %s: %w", voucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrVoucherAlreadyUsed
	}
	return nil
}

// List returns every voucher, newest first.
func (r *VoucherRepository) List(ctx context.Context) ([]model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	out := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher row: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voucher rows: %w", err)
	}
	return out, nil
}
