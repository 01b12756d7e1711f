package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is a customer's request to occupy seats of a slot.
type Booking struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"user_id"`
	TrekKey        string          `json:"trek_key"`
	SlotID         uuid.UUID       `json:"slot_id"`
	TrekDate       time.Time       `json:"-"`
	Participants   int             `json:"participants"`
	Status         BookingStatus   `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	VoucherID      *uuid.UUID      `json:"voucher_id,omitempty"`

	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	Nationality     string `json:"nationality,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
	AcceptTerms     bool   `json:"accept_terms"`
	AcceptPrivacy   bool   `json:"accept_privacy"`

	AdminNotes         string `json:"admin_notes,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CancelledBy        string `json:"cancelled_by,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarshalJSON renders the trek date without a time component.
func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		TrekDate string `json:"trek_date"`
	}{
		alias:    alias(b),
		TrekDate: b.TrekDate.Format(DateLayout),
	})
}

// BookingFilter narrows booking listings. Zero values mean "any".
type BookingFilter struct {
	UserID  string
	TrekKey string
	SlotID  *uuid.UUID
	Status  BookingStatus
	Limit   int
	Offset  int
}
