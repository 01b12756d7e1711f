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

// maxGenerateDays bounds a single generation request.
const maxGenerateDays = 366

// SlotService manages trek slots for operators and exposes the public availability view.
type SlotService struct {
	pool     TxBeginner
	slots    SlotRepositoryInterface
	bookings BookingRepositoryInterface
}

// NewSlotService creates a new SlotService.
func NewSlotService(pool TxBeginner, slots SlotRepositoryInterface, bookings BookingRepositoryInterface) *SlotService {
	return &SlotService{pool: pool, slots: slots, bookings: bookings}
}

// List returns the slots of a trek (all treks when trekKey is empty) with the
// booked count derived from bookings rather than the cached counter.
func (s *SlotService) List(ctx context.Context, trekKey string) ([]model.Slot, error) {
	rows, err := s.slots.ListWithHeld(ctx, trekKey)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	out := make([]model.Slot, 0, len(rows))
	for _, row := range rows {
		slot := row.Slot
		slot.Booked = row.Held
		out = append(out, slot)
	}
	return out, nil
}

// Get returns one slot with a freshly derived booked count.
func (s *SlotService) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	held, err := s.bookings.SumHeldParticipants(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("compute booked count: %w", err)
	}
	slot.Booked = held
	return slot, nil
}

// Create adds a slot. Returns ErrSlotExists when the trek already departs on that date.
func (s *SlotService) Create(ctx context.Context, req *model.CreateSlotRequest) (*model.Slot, error) {
	if req == nil || req.Capacity == nil {
		return nil, ErrInvalidRequest
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, req.Date)
	}
	price, err := priceOrZero(req.Price)
	if err != nil {
		return nil, err
	}
	status := model.SlotOpen
	if req.Status != "" {
		status = model.SlotStatus(req.Status)
	}

	slot := &model.Slot{
		ID:       uuid.New(),
		TrekKey:  req.TrekKey,
		Date:     date,
		Capacity: *req.Capacity,
		Status:   status,
		Price:    price,
	}
	if err := s.slots.Insert(ctx, nil, slot); err != nil {
		return nil, err
	}

	log.Info().
		Str("slot_id", slot.ID.String()).
		Str("trek_key", slot.TrekKey).
		Str("date", req.Date).
		Int("capacity", slot.Capacity).
		Msg("slot created")
	return slot, nil
}

// Update changes capacity, date, status or price of a slot.
// Returns:
//   - ErrCapacityBelowBooked if the new capacity is below the participants already held
//   - ErrSlotHasBookings if the date is moved while bookings reference the slot
func (s *SlotService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSlotRequest) (*model.Slot, error) {
	if req == nil || (req.Capacity == nil && req.Date == nil && req.Status == nil && req.Price == nil) {
		return nil, ErrInvalidRequest
	}

	var updated *model.Slot
	err := database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		slot, err := s.slots.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("lock slot: %w", err)
		}

		if req.Date != nil {
			date, err := model.ParseDate(*req.Date)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidDate, *req.Date)
			}
			if !date.Equal(slot.Date) {
				n, err := s.bookings.CountBySlot(ctx, tx, id)
				if err != nil {
					return fmt.Errorf("count bookings: %w", err)
				}
				if n > 0 {
					return fmt.Errorf("%w: cannot move date with %d bookings", ErrSlotHasBookings, n)
				}
				slot.Date = date
			}
		}
		if req.Capacity != nil {
			held, err := s.bookings.SumHeldParticipants(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("compute booked count: %w", err)
			}
			if *req.Capacity < held {
				return fmt.Errorf("%w: %d participants already booked", ErrCapacityBelowBooked, held)
			}
			slot.Capacity = *req.Capacity
		}
		if req.Status != nil {
			slot.Status = model.SlotStatus(*req.Status)
		}
		if req.Price != nil {
			price, err := priceOrZero(req.Price)
			if err != nil {
				return err
			}
			slot.Price = price
		}

		if err := s.slots.Update(ctx, tx, slot); err != nil {
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("slot_id", id.String()).Msg("slot updated")
	return updated, nil
}

// Delete removes a slot that no booking references.
func (s *SlotService) Delete(ctx context.Context, id uuid.UUID) error {
	return database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := s.slots.GetForUpdate(ctx, tx, id); err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("lock slot: %w", err)
		}
		n, err := s.bookings.CountBySlot(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d bookings", ErrSlotHasBookings, n)
		}
		if err := s.slots.Delete(ctx, tx, id); err != nil {
			return err
		}
		log.Info().Str("slot_id", id.String()).Msg("slot deleted")
		return nil
	})
}

// Generate creates open slots for every date in [from, to] whose weekday is
// selected, skipping dates that already have a slot.
func (s *SlotService) Generate(ctx context.Context, req *model.GenerateSlotsRequest) (*model.GenerateSlotsResult, error) {
	if req == nil || req.Capacity == nil {
		return nil, ErrInvalidRequest
	}
	from, err := model.ParseDate(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, req.From)
	}
	to, err := model.ParseDate(req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, req.To)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidDate)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxGenerateDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidDate, maxGenerateDays)
	}
	price, err := priceOrZero(req.Price)
	if err != nil {
		return nil, err
	}

	weekdays := make(map[time.Weekday]bool, len(req.Weekdays))
	for _, d := range req.Weekdays {
		weekdays[time.Weekday(d)] = true
	}

	result := &model.GenerateSlotsResult{TrekKey: req.TrekKey, Dates: []string{}}
	err = database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if len(weekdays) > 0 && !weekdays[d.Weekday()] {
				continue
			}
			slot := &model.Slot{
				ID:       uuid.New(),
				TrekKey:  req.TrekKey,
				Date:     d,
				Capacity: *req.Capacity,
				Status:   model.SlotOpen,
				Price:    price,
			}
			created, err := s.slots.InsertIfAbsent(ctx, tx, slot)
			if err != nil {
				return err
			}
			if !created {
				result.Skipped++
				continue
			}
			result.Created++
			result.Dates = append(result.Dates, d.Format(model.DateLayout))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("trek_key", req.TrekKey).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("slots generated")
	return result, nil
}

func priceOrZero(p *decimal.Decimal) (decimal.Decimal, error) {
	if p == nil {
		return decimal.Zero, nil
	}
	if p.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return *p, nil
}
