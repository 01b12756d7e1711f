package model

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending         BookingStatus = "pending" // legacy entry state, counted like pending_approval
	StatusPendingApproval BookingStatus = "pending_approval"
	StatusApproved        BookingStatus = "approved"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusCancelled       BookingStatus = "cancelled"
	StatusCompleted       BookingStatus = "completed"
)

// validTransitions defines the booking state machine.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:         {StatusApproved, StatusConfirmed, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusConfirmed, StatusCancelled},
	StatusApproved:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusCompleted, StatusCancelled},
	StatusCancelled:       {},
	StatusCompleted:       {},
}

// CountingStatuses are the statuses whose participants hold slot inventory.
var CountingStatuses = []BookingStatus{
	StatusPending,
	StatusPendingApproval,
	StatusApproved,
	StatusConfirmed,
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HoldsInventory reports whether a booking in this status counts against slot capacity.
func (s BookingStatus) HoldsInventory() bool {
	for _, c := range CountingStatuses {
		if c == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus tracks the money side of a booking.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
	PaymentRefunded    PaymentStatus = "refunded"
	PaymentFailed      PaymentStatus = "failed"
)

// IsValid returns true if the payment status is recognized.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentNotRequired, PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// SlotStatus says whether a slot accepts new bookings.
type SlotStatus string

const (
	SlotOpen   SlotStatus = "open"
	SlotClosed SlotStatus = "closed"
)

// IsValid returns true if the slot status is recognized.
func (s SlotStatus) IsValid() bool {
	return s == SlotOpen || s == SlotClosed
}
