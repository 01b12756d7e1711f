package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

var hundred = decimal.NewFromInt(100)

// VoucherService validates, redeems and manages discount vouchers.
type VoucherService struct {
	repo VoucherRepositoryInterface
	now  func() time.Time
}

// NewVoucherService creates a new VoucherService backed by the given repository.
func NewVoucherService(repo VoucherRepositoryInterface) *VoucherService {
	return &VoucherService{repo: repo, now: time.Now}
}

// NormalizeCode returns the stored form of a voucher code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Quote applies a voucher to amount for userID at the instant now.
// Checks run in order: owner, remaining uses, expiry, minimum amount.
// A voucher with a non-positive percentage is informational and leaves the amount unchanged.
func Quote(v *model.Voucher, amount decimal.Decimal, userID string, now time.Time) (*model.VoucherQuote, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if v.UserID != nil && *v.UserID != userID {
		return nil, ErrVoucherNotForUser
	}
	if v.Exhausted() {
		return nil, ErrVoucherAlreadyUsed
	}
	if v.ValidUntil != nil && now.After(*v.ValidUntil) {
		return nil, ErrVoucherExpired
	}
	if v.MinimumAmount.Valid && amount.LessThan(v.MinimumAmount.Decimal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrVoucherMinimumAmount, v.MinimumAmount.Decimal.StringFixed(2))
	}

	quote := &model.VoucherQuote{
		Voucher:        v,
		Amount:         amount,
		DiscountAmount: decimal.Zero,
		FinalAmount:    amount,
	}
	if v.Informational() {
		quote.Informational = true
		return quote, nil
	}

	discount := amount.Mul(decimal.NewFromInt(int64(v.DiscountPercent))).Div(hundred).Round(2)
	if v.MaximumDiscount.Valid && discount.GreaterThan(v.MaximumDiscount.Decimal) {
		discount = v.MaximumDiscount.Decimal
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	final := amount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	quote.DiscountAmount = discount
	quote.FinalAmount = final
	return quote, nil
}

// Validate looks up code and quotes it against amount for userID.
func (s *VoucherService) Validate(ctx context.Context, code string, amount decimal.Decimal, userID string) (*model.VoucherQuote, error) {
	return s.validate(ctx, nil, code, amount, userID)
}

func (s *VoucherService) validate(ctx context.Context, tx database.TxQuerier, code string, amount decimal.Decimal, userID string) (*model.VoucherQuote, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrVoucherNotFound
	}

	v, err := s.repo.GetByCode(ctx, tx, normalized)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if v == nil {
		return nil, ErrVoucherNotFound
	}
	return Quote(v, amount, userID, s.now())
}

// Redeem consumes one use of the voucher for the booking. It must run in the
// transaction that inserts the booking.
// Returns ErrVoucherAlreadyUsed when a concurrent redeemer took the last use.
func (s *VoucherService) Redeem(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error {
	return s.repo.Redeem(ctx, tx, voucherID, bookingID, userID)
}

// Create registers a new voucher from an operator request.
func (s *VoucherService) Create(ctx context.Context, req *model.CreateVoucherRequest) (*model.Voucher, error) {
	if req == nil || req.DiscountPercent == nil {
		return nil, ErrInvalidRequest
	}
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidRequest
	}

	v := &model.Voucher{
		ID:              uuid.New(),
		Code:            code,
		Description:     strings.TrimSpace(req.Description),
		DiscountPercent: *req.DiscountPercent,
		ValidUntil:      req.ValidUntil,
		UserID:          req.UserID,
		MaxUses:         req.MaxUses,
	}
	if v.MaxUses == 0 {
		v.MaxUses = 1
	}
	if req.MinimumAmount != nil {
		if req.MinimumAmount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		v.MinimumAmount = decimal.NewNullDecimal(*req.MinimumAmount)
	}
	if req.MaximumDiscount != nil {
		if req.MaximumDiscount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		v.MaximumDiscount = decimal.NewNullDecimal(*req.MaximumDiscount)
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns every voucher.
func (s *VoucherService) List(ctx context.Context) ([]model.Voucher, error) {
	vouchers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return vouchers, nil
}
