package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized is returned when an operation needs a session and none was presented
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden is returned when the caller may not act on the resource
	ErrForbidden = errors.New("forbidden")

	// ErrAccountNotActivated is returned when a caller with an inactive account tries to book
	ErrAccountNotActivated = errors.New("account is not activated")

	// ErrInvalidParticipants is returned when the participant count is out of bounds
	ErrInvalidParticipants = errors.New("participants out of range")

	// ErrInvalidDate is returned when a date is malformed or the range is inverted
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidAmount is returned when a monetary amount is negative
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSlotNotFound is returned when no slot (or no open slot for a trek and date) exists
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotExists is returned when a slot for the same trek and date already exists
	ErrSlotExists = errors.New("slot already exists for this trek and date")

	// ErrSlotFull is returned when the slot cannot admit the requested participants
	ErrSlotFull = errors.New("slot does not have enough capacity")

	// ErrSlotHasBookings is returned when deleting a slot that bookings reference
	ErrSlotHasBookings = errors.New("slot is referenced by bookings")

	// ErrCapacityBelowBooked is returned when capacity would drop below the participants already held
	ErrCapacityBelowBooked = errors.New("capacity cannot be lower than booked participants")

	// ErrBookingNotFound is returned when a booking cannot be found
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidStatus is returned for an unknown booking status
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidTransition is returned when the state machine does not allow a status change
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrVoucherNotFound is returned when a voucher code does not exist
	ErrVoucherNotFound = errors.New("Invalid voucher code")

	// ErrVoucherExists is returned when creating a voucher with a code already in use
	ErrVoucherExists = errors.New("voucher code already exists")

	// ErrVoucherNotForUser is returned when a user-bound voucher is presented by another user
	ErrVoucherNotForUser = errors.New("voucher is not valid for this user")

	// ErrVoucherAlreadyUsed is returned when a voucher has no uses left
	ErrVoucherAlreadyUsed = errors.New("voucher has already been used")

	// ErrVoucherExpired is returned when a voucher is past its validity
	ErrVoucherExpired = errors.New("voucher has expired")

	// ErrVoucherMinimumAmount is returned when the amount is below the voucher minimum
	ErrVoucherMinimumAmount = errors.New("amount is below the voucher minimum")
)
