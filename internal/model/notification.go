package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationEvent names a booking lifecycle event; it doubles as the broker routing key.
type NotificationEvent string

const (
	EventBookingReceived  NotificationEvent = "booking.received"
	EventBookingApproved  NotificationEvent = "booking.approved"
	EventBookingConfirmed NotificationEvent = "booking.confirmed"
	EventBookingCancelled NotificationEvent = "booking.cancelled"
	EventBookingCompleted NotificationEvent = "booking.completed"
)

// Notification carries enough booking data to render a customer message.
type Notification struct {
	Event        NotificationEvent `json:"event"`
	BookingID    uuid.UUID         `json:"booking_id"`
	UserID       string            `json:"user_id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	TrekKey      string            `json:"trek_key"`
	TrekDate     string            `json:"trek_date"`
	Participants int               `json:"participants"`
	Status       BookingStatus     `json:"status"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Reason       string            `json:"reason,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// NewNotification builds a notification for the booking's current state.
func NewNotification(event NotificationEvent, b *Booking, at time.Time) Notification {
	return Notification{
		Event:        event,
		BookingID:    b.ID,
		UserID:       b.UserID,
		Email:        b.CustomerEmail,
		Name:         b.CustomerName,
		TrekKey:      b.TrekKey,
		TrekDate:     b.TrekDate.Format(DateLayout),
		Participants: b.Participants,
		Status:       b.Status,
		TotalAmount:  b.TotalAmount,
		Reason:       b.CancellationReason,
		OccurredAt:   at,
	}
}

// EventForStatus returns the event emitted when a booking enters status.
// The second result is false when entering status sends nothing.
func EventForStatus(status BookingStatus) (NotificationEvent, bool) {
	switch status {
	case StatusApproved:
		return EventBookingApproved, true
	case StatusConfirmed:
		return EventBookingConfirmed, true
	case StatusCancelled:
		return EventBookingCancelled, true
	case StatusCompleted:
		return EventBookingCompleted, true
	}
	return "", false
}
