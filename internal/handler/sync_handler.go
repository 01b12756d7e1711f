package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// ReconcilerInterface defines the reconciliation operations exposed to operators.
type ReconcilerInterface interface {
	ReconcileOne(ctx context.Context, slotID uuid.UUID) (*model.ReconcileResult, error)
	ReconcileTrek(ctx context.Context, trekKey string) (*model.SyncReport, error)
	ReconcileAll(ctx context.Context) (*model.SyncReport, error)
	Audit(ctx context.Context, trekKey string) (*model.AuditReport, error)
}

// SyncHandler handles slot reconciliation and audit requests.
type SyncHandler struct {
	reconciler ReconcilerInterface
	validator  *validator.Validate
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(r ReconcilerInterface, v *validator.Validate) *SyncHandler {
	return &SyncHandler{reconciler: r, validator: v}
}

// Sync handles POST /api/admin/slots/sync. Exactly one of trekSlug, slotId or
// syncAll selects what to reconcile.
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	var req model.SyncSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if req.Selectors() != 1 {
		return badRequest(c, "invalid request: exactly one of trekSlug, slotId or syncAll is required")
	}

	ctx := c.UserContext()
	var (
		report *model.SyncReport
		err    error
	)
	switch {
	case req.SlotID != "":
		report, err = h.syncOne(ctx, uuid.MustParse(req.SlotID))
	case req.TrekSlug != "":
		report, err = h.reconciler.ReconcileTrek(ctx, req.TrekSlug)
	default:
		report, err = h.reconciler.ReconcileAll(ctx)
	}
	if err != nil {
		return respondError(c, err, "failed to reconcile slots")
	}

	withRequest(log.Info(), c).
		Int("total_slots", report.TotalSlots).
		Int("updated_slots", report.UpdatedSlots).
		Int("failed_slots", report.FailedSlots).
		Msg("slot reconciliation requested")
	return c.JSON(report)
}

func (h *SyncHandler) syncOne(ctx context.Context, id uuid.UUID) (*model.SyncReport, error) {
	res, err := h.reconciler.ReconcileOne(ctx, id)
	if err != nil {
		return nil, err
	}
	report := &model.SyncReport{Success: true, Slots: []model.SlotSyncResult{}}
	report.Add(model.SlotSyncResult{
		SlotID:   res.SlotID,
		Success:  true,
		Previous: res.Previous,
		Booked:   res.Booked,
		Updated:  res.Updated,
	})
	return report, nil
}

// Audit handles GET /api/admin/slots/sync?trek=... and reports drift without writing.
func (h *SyncHandler) Audit(c *fiber.Ctx) error {
	report, err := h.reconciler.Audit(c.UserContext(), c.Query("trek"))
	if err != nil {
		return respondError(c, err, "failed to audit slots")
	}
	return c.JSON(report)
}
