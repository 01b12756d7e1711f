package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is a percentage discount code.
type Voucher struct {
	ID              uuid.UUID           `json:"id"`
	Code            string              `json:"code"`
	Description     string              `json:"description,omitempty"`
	DiscountPercent int                 `json:"discount_percent"`
	ValidUntil      *time.Time          `json:"valid_until,omitempty"`
	UserID          *string             `json:"user_id,omitempty"`
	MaxUses         int                 `json:"max_uses"`
	UseCount        int                 `json:"use_count"`
	IsUsed          bool                `json:"is_used"`
	UsedAt          *time.Time          `json:"used_at,omitempty"`
	UsedBy          *string             `json:"used_by,omitempty"`
	UsedBookingID   *uuid.UUID          `json:"used_booking_id,omitempty"`
	MinimumAmount   decimal.NullDecimal `json:"minimum_amount"`
	MaximumDiscount decimal.NullDecimal `json:"maximum_discount"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Exhausted reports whether the voucher has no uses left.
func (v Voucher) Exhausted() bool {
	return v.IsUsed || (v.MaxUses > 0 && v.UseCount >= v.MaxUses)
}

// Informational reports whether the voucher carries no numeric discount.
func (v Voucher) Informational() bool {
	return v.DiscountPercent <= 0
}

// VoucherQuote is the outcome of applying a voucher to an amount.
type VoucherQuote struct {
	Voucher        *Voucher        `json:"-"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Informational  bool            `json:"informational,omitempty"`
}
