package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

// Reconciler keeps each slot's cached booked counter equal to the participants
// held by its counting-set bookings. It is the only writer of slots.booked.
type Reconciler struct {
	pool     TxBeginner
	slots    SlotRepositoryInterface
	bookings BookingRepositoryInterface
}

// NewReconciler creates a new Reconciler.
func NewReconciler(pool TxBeginner, slots SlotRepositoryInterface, bookings BookingRepositoryInterface) *Reconciler {
	return &Reconciler{pool: pool, slots: slots, bookings: bookings}
}

// ComputeBookedCount derives a slot's booked count from its bookings.
func (r *Reconciler) ComputeBookedCount(ctx context.Context, slotID uuid.UUID) (int, error) {
	return r.bookings.SumHeldParticipants(ctx, nil, slotID)
}

// ReconcileOne recomputes the slot's booked count under a row lock and writes
// it back only when it differs. When the count cannot be computed the slot is
// left untouched.
func (r *Reconciler) ReconcileOne(ctx context.Context, slotID uuid.UUID) (*model.ReconcileResult, error) {
	var (
		result   model.ReconcileResult
		capacity int
	)
	err := database.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		slot, err := r.slots.GetForUpdate(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("lock slot: %w", err)
		}

		held, err := r.bookings.SumHeldParticipants(ctx, tx, slotID)
		if err != nil {
			return fmt.Errorf("compute booked count: %w", err)
		}

		result = model.ReconcileResult{SlotID: slotID, Previous: slot.Booked, Booked: held}
		capacity = slot.Capacity
		if held == slot.Booked {
			return nil
		}
		if err := r.slots.UpdateBooked(ctx, tx, slotID, held); err != nil {
			return fmt.Errorf("write booked count: %w", err)
		}
		result.Updated = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Updated {
		log.Info().
			Str("slot_id", slotID.String()).
			Int("previous", result.Previous).
			Int("booked", result.Booked).
			Msg("slot booked count corrected")
	}
	if result.Booked > capacity {
		log.Warn().
			Str("slot_id", slotID.String()).
			Int("booked", result.Booked).
			Int("capacity", capacity).
			Msg("slot is overbooked")
	}
	return &result, nil
}

// ReconcileTrek reconciles every slot of a trek. A failing slot is recorded in
// the report and does not stop the others.
func (r *Reconciler) ReconcileTrek(ctx context.Context, trekKey string) (*model.SyncReport, error) {
	ids, err := r.slots.ListIDs(ctx, trekKey)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	report := r.reconcileIDs(ctx, ids)
	report.TrekKey = trekKey
	return report, nil
}

// ReconcileAll reconciles every slot.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*model.SyncReport, error) {
	ids, err := r.slots.ListIDs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return r.reconcileIDs(ctx, ids), nil
}

func (r *Reconciler) reconcileIDs(ctx context.Context, ids []uuid.UUID) *model.SyncReport {
	report := &model.SyncReport{Success: true, Slots: []model.SlotSyncResult{}}
	for _, id := range ids {
		res, err := r.ReconcileOne(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("slot_id", id.String()).Msg("slot reconciliation failed")
			report.Add(model.SlotSyncResult{SlotID: id, Error: err.Error()})
			continue
		}
		report.Add(model.SlotSyncResult{
			SlotID:   id,
			Success:  true,
			Previous: res.Previous,
			Booked:   res.Booked,
			Updated:  res.Updated,
		})
	}
	return report
}

// Audit compares stored and computed counts of a trek's slots (all slots when
// trekKey is empty) without writing anything.
func (r *Reconciler) Audit(ctx context.Context, trekKey string) (*model.AuditReport, error) {
	rows, err := r.slots.ListWithHeld(ctx, trekKey)
	if err != nil {
		return nil, fmt.Errorf("audit slots: %w", err)
	}

	audits := make([]model.SlotAudit, 0, len(rows))
	for _, row := range rows {
		audits = append(audits, model.SlotAudit{
			SlotID:   row.Slot.ID,
			TrekKey:  row.Slot.TrekKey,
			Date:     row.Slot.Date,
			Status:   row.Slot.Status,
			Capacity: row.Slot.Capacity,
			Stored:   row.Slot.Booked,
			Computed: row.Held,
		})
	}
	return model.NewAuditReport(audits), nil
}

// AuditAll audits every slot.
func (r *Reconciler) AuditAll(ctx context.Context) (*model.AuditReport, error) {
	return r.Audit(ctx, "")
}
