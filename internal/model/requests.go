package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSlotRequest is the DTO for POST /api/slots.
type CreateSlotRequest struct {
	TrekKey  string           `json:"trek_key" validate:"required,trekkey,max=100"`
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Capacity *int             `json:"capacity" validate:"required,gte=1,lte=500"`
	Status   string           `json:"status" validate:"omitempty,oneof=open closed"`
	Price    *decimal.Decimal `json:"price"`
}

// UpdateSlotRequest is the DTO for PATCH /api/slots/:id. Nil fields are left unchanged.
type UpdateSlotRequest struct {
	Capacity *int             `json:"capacity" validate:"omitempty,gte=1,lte=500"`
	Date     *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status   *string          `json:"status" validate:"omitempty,oneof=open closed"`
	Price    *decimal.Decimal `json:"price"`
}

// GenerateSlotsRequest is the DTO for POST /api/admin/slots/generate.
// Weekdays uses time.Weekday numbering (0 = Sunday); empty means every day.
type GenerateSlotsRequest struct {
	TrekKey  string           `json:"trek_key" validate:"required,trekkey,max=100"`
	From     string           `json:"from" validate:"required,datetime=2006-01-02"`
	To       string           `json:"to" validate:"required,datetime=2006-01-02"`
	Weekdays []int            `json:"weekdays" validate:"omitempty,dive,gte=0,lte=6"`
	Capacity *int             `json:"capacity" validate:"required,gte=1,lte=500"`
	Price    *decimal.Decimal `json:"price"`
}

// CreateBookingRequest is the DTO for POST /api/bookings.
type CreateBookingRequest struct {
	TrekKey         string `json:"trek_key" validate:"required,trekkey,max=100"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Participants    *int   `json:"participants" validate:"required"`
	CustomerName    string `json:"customer_name" validate:"required,notblank,max=200"`
	CustomerEmail   string `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone   string `json:"customer_phone" validate:"required,notblank,max=50"`
	Nationality     string `json:"nationality" validate:"omitempty,max=100"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=2000"`
	AcceptTerms     bool   `json:"accept_terms" validate:"required"`
	AcceptPrivacy   bool   `json:"accept_privacy" validate:"required"`
	VoucherCode     string `json:"voucher_code" validate:"omitempty,max=64"`
}

// UpdateBookingRequest is the DTO for PATCH /api/bookings/:id. Nil fields are left unchanged.
type UpdateBookingRequest struct {
	Status             *string `json:"status" validate:"omitempty,notblank"`
	PaymentStatus      *string `json:"payment_status" validate:"omitempty,oneof=not_required pending paid refunded failed"`
	AdminNotes         *string `json:"admin_notes" validate:"omitempty,max=2000"`
	CancellationReason *string `json:"cancellation_reason" validate:"omitempty,max=500"`
}

// SyncSlotsRequest is the DTO for POST /api/admin/slots/sync. Exactly one selector must be set.
type SyncSlotsRequest struct {
	TrekSlug string `json:"trekSlug" validate:"omitempty,trekkey"`
	SlotID   string `json:"slotId" validate:"omitempty,uuid"`
	SyncAll  bool   `json:"syncAll"`
}

// Selectors returns how many of the mutually exclusive selectors are set.
func (r SyncSlotsRequest) Selectors() int {
	n := 0
	if r.TrekSlug != "" {
		n++
	}
	if r.SlotID != "" {
		n++
	}
	if r.SyncAll {
		n++
	}
	return n
}

// ValidateVoucherRequest is the DTO for POST /api/vouchers/validate.
type ValidateVoucherRequest struct {
	Code   string           `json:"code" validate:"required,notblank,max=64"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
	UserID string           `json:"userId" validate:"omitempty,max=255"`
}

// ValidateVoucherResponse is the response of POST /api/vouchers/validate.
type ValidateVoucherResponse struct {
	Valid          bool             `json:"valid"`
	Code           string           `json:"code,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
	Informational  bool             `json:"informational,omitempty"`
	Description    string           `json:"description,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// CreateVoucherRequest is the DTO for POST /api/admin/vouchers.
type CreateVoucherRequest struct {
	Code            string           `json:"code" validate:"required,notblank,max=64"`
	Description     string           `json:"description" validate:"omitempty,max=500"`
	DiscountPercent *int             `json:"discount_percent" validate:"required,gte=0,lte=100"`
	ValidUntil      *time.Time       `json:"valid_until"`
	UserID          *string          `json:"user_id" validate:"omitempty,notblank,max=255"`
	MaxUses         int              `json:"max_uses" validate:"omitempty,gte=1"`
	MinimumAmount   *decimal.Decimal `json:"minimum_amount"`
	MaximumDiscount *decimal.Decimal `json:"maximum_discount"`
}
