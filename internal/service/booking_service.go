package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

// AdmissionMode selects how a new booking is checked against slot capacity.
type AdmissionMode string

const (
	// AdmissionStrict locks the slot row and re-derives the held count before admitting.
	AdmissionStrict AdmissionMode = "strict"
	// AdmissionAdvisory compares against the cached booked counter without a lock;
	// concurrent bookings may overbook until reconciliation reports it.
	AdmissionAdvisory AdmissionMode = "advisory"
)

// SlotReconciler recomputes one slot's booked counter.
type SlotReconciler interface {
	ReconcileOne(ctx context.Context, slotID uuid.UUID) (*model.ReconcileResult, error)
}

// Notifier accepts booking notifications for best-effort asynchronous delivery.
type Notifier interface {
	Enqueue(n model.Notification)
}

// BookingOptions holds booking rules.
type BookingOptions struct {
	MaxParticipants int
	Admission       AdmissionMode
}

// BookingService owns the booking lifecycle: creation, status transitions and their side effects.
type BookingService struct {
	pool       TxBeginner
	slots      SlotRepositoryInterface
	bookings   BookingRepositoryInterface
	vouchers   *VoucherService
	reconciler SlotReconciler
	notifier   Notifier
	opts       BookingOptions
	now        func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	pool TxBeginner,
	slots SlotRepositoryInterface,
	bookings BookingRepositoryInterface,
	vouchers *VoucherService,
	reconciler SlotReconciler,
	notifier Notifier,
	opts BookingOptions,
) *BookingService {
	if opts.MaxParticipants < 1 {
		opts.MaxParticipants = 20
	}
	if opts.Admission == "" {
		opts.Admission = AdmissionStrict
	}
	return &BookingService{
		pool:       pool,
		slots:      slots,
		bookings:   bookings,
		vouchers:   vouchers,
		reconciler: reconciler,
		notifier:   notifier,
		opts:       opts,
		now:        time.Now,
	}
}

// CreateBooking admits a booking into the open slot for the requested trek and date.
// The booking is committed in pending_approval; reconciliation and notification
// happen afterwards and their failures never fail the booking.
// Returns:
//   - ErrUnauthorized / ErrAccountNotActivated for missing or inactive callers
//   - ErrInvalidParticipants, ErrInvalidDate for bad input
//   - ErrSlotNotFound when no open slot exists, ErrSlotFull when it has no room
//   - voucher errors when a voucher code is given and cannot be applied
func (s *BookingService) CreateBooking(ctx context.Context, sess *model.Session, req *model.CreateBookingRequest) (*model.Booking, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthorized
	}
	if req == nil || req.Participants == nil {
		return nil, ErrInvalidRequest
	}
	if !sess.Activated {
		return nil, ErrAccountNotActivated
	}
	participants := *req.Participants
	if participants < 1 || participants > s.opts.MaxParticipants {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidParticipants, s.opts.MaxParticipants)
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, req.Date)
	}

	booking := &model.Booking{
		ID:              uuid.New(),
		UserID:          sess.UserID,
		TrekKey:         req.TrekKey,
		TrekDate:        date,
		Participants:    participants,
		Status:          model.StatusPendingApproval,
		DiscountAmount:  decimal.Zero,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Nationality:     req.Nationality,
		SpecialRequests: req.SpecialRequests,
		AcceptTerms:     req.AcceptTerms,
		AcceptPrivacy:   req.AcceptPrivacy,
	}

	err = database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		strict := s.opts.Admission == AdmissionStrict

		// 1. Resolve the slot (locked in strict mode)
		slot, err := s.slots.FindOpen(ctx, tx, req.TrekKey, date, strict)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("resolve slot: %w", err)
		}

		// 2. Admission check
		// Strict mode counts from the bookings themselves; advisory trusts the cached counter.
		if strict {
			slot.Booked, err = s.bookings.SumHeldParticipants(ctx, tx, slot.ID)
			if err != nil {
				return fmt.Errorf("count held participants: %w", err)
			}
		}
		if !slot.HasRoomFor(participants) {
			return fmt.Errorf("%w: %d of %d seats left", ErrSlotFull, slot.Available(), slot.Capacity)
		}
		booking.SlotID = slot.ID

		// 3. Price and optional voucher
		amount := slot.Price.Mul(decimal.NewFromInt(int64(participants)))
		var quote *model.VoucherQuote
		if req.VoucherCode != "" {
			quote, err = s.vouchers.validate(ctx, tx, req.VoucherCode, amount, sess.UserID)
			if err != nil {
				return err
			}
			booking.VoucherID = &quote.Voucher.ID
			booking.DiscountAmount = quote.DiscountAmount
			amount = quote.FinalAmount
		}
		booking.TotalAmount = amount
		booking.PaymentStatus = model.PaymentNotRequired
		if amount.IsPositive() {
			booking.PaymentStatus = model.PaymentPending
		}

		// 4. Insert, then consume the voucher in the same transaction
		if err := s.bookings.Insert(ctx, tx, booking); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if quote != nil {
			if err := s.vouchers.Redeem(ctx, tx, quote.Voucher.ID, booking.ID, sess.UserID); err != nil {
				if errors.Is(err, ErrVoucherAlreadyUsed) {
					return ErrVoucherAlreadyUsed
				}
				return fmt.Errorf("redeem voucher: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", booking.ID.String()).
		Str("slot_id", booking.SlotID.String()).
		Str("user_id", booking.UserID).
		Int("participants", booking.Participants).
		Str("total_amount", booking.TotalAmount.StringFixed(2)).
		Msg("booking created")

	s.reconcile(ctx, booking.SlotID, booking.ID)
	s.notify(model.EventBookingReceived, booking)
	return booking, nil
}

// Transition moves a booking along the state machine and applies administrative
// corrections. Non-admin callers may only cancel their own bookings.
// Terminal bookings accept corrections (payment status, notes) but no status change.
func (s *BookingService) Transition(ctx context.Context, actor *model.Session, id uuid.UUID, req *model.UpdateBookingRequest) (*model.Booking, error) {
	if actor == nil || actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	if req == nil || (req.Status == nil && req.PaymentStatus == nil && req.AdminNotes == nil && req.CancellationReason == nil) {
		return nil, ErrInvalidRequest
	}

	var target model.BookingStatus
	if req.Status != nil {
		st, err := model.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		target = st
	}
	var payment model.PaymentStatus
	if req.PaymentStatus != nil {
		payment = model.PaymentStatus(*req.PaymentStatus)
		if !payment.IsValid() {
			return nil, fmt.Errorf("%w: unknown payment status %s", ErrInvalidRequest, payment)
		}
	}

	admin := actor.IsAdmin()
	if !admin && (target != model.StatusCancelled || req.PaymentStatus != nil || req.AdminNotes != nil) {
		return nil, ErrForbidden
	}

	var (
		booking *model.Booking
		from    model.BookingStatus
	)
	err := database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("lock booking: %w", err)
		}
		if !admin && !actor.Owns(b) {
			return ErrBookingNotFound
		}
		from = b.Status

		if target != "" {
			if !b.Status.CanTransitionTo(target) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
			}
			s.applyStatus(b, target, actor)
		}
		if req.CancellationReason != nil {
			b.CancellationReason = *req.CancellationReason
		}
		if payment != "" {
			b.PaymentStatus = payment
		}
		if req.AdminNotes != nil {
			b.AdminNotes = *req.AdminNotes
		}

		if err := s.bookings.Update(ctx, tx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target == "" {
		log.Info().Str("booking_id", id.String()).Str("actor", actor.UserID).Msg("booking corrected")
		return booking, nil
	}

	log.Info().
		Str("booking_id", id.String()).
		Str("actor", actor.UserID).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("booking status changed")

	if from.HoldsInventory() != target.HoldsInventory() {
		s.reconcile(ctx, booking.SlotID, booking.ID)
	}
	if event, ok := model.EventForStatus(target); ok {
		s.notify(event, booking)
	}
	return booking, nil
}

func (s *BookingService) applyStatus(b *model.Booking, target model.BookingStatus, actor *model.Session) {
	now := s.now()
	b.Status = target
	switch target {
	case model.StatusApproved:
		b.ApprovedAt = &now
	case model.StatusConfirmed:
		b.ConfirmedAt = &now
		if b.PaymentStatus == model.PaymentPending {
			b.PaymentStatus = model.PaymentPaid
		}
	case model.StatusCancelled:
		b.CancelledAt = &now
		b.CancelledBy = actor.UserID
	case model.StatusCompleted:
		b.CompletedAt = &now
	}
}

// GetBooking returns a booking visible to the caller. Bookings of other users
// are reported as not found to non-admin callers.
func (s *BookingService) GetBooking(ctx context.Context, actor *model.Session, id uuid.UUID) (*model.Booking, error) {
	if actor == nil || actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || (!actor.IsAdmin() && !actor.Owns(b)) {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// ListBookings lists bookings; non-admin callers only ever see their own.
func (s *BookingService) ListBookings(ctx context.Context, actor *model.Session, filter model.BookingFilter) ([]model.Booking, error) {
	if actor == nil || actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// reconcile runs after the booking change committed; a failure is only logged
// because the next reconciliation corrects the counter.
func (s *BookingService) reconcile(ctx context.Context, slotID, bookingID uuid.UUID) {
	if s.reconciler == nil {
		return
	}
	if _, err := s.reconciler.ReconcileOne(ctx, slotID); err != nil {
		log.Error().
			Err(err).
			Str("slot_id", slotID.String()).
			Str("booking_id", bookingID.String()).
			Msg("slot reconciliation after booking change failed")
	}
}

func (s *BookingService) notify(event model.NotificationEvent, b *model.Booking) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(model.NewNotification(event, b, s.now()))
}
