package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// SlotServiceInterface defines the interface for slot business logic.
type SlotServiceInterface interface {
	List(ctx context.Context, trekKey string) ([]model.Slot, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	Create(ctx context.Context, req *model.CreateSlotRequest) (*model.Slot, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateSlotRequest) (*model.Slot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Generate(ctx context.Context, req *model.GenerateSlotsRequest) (*model.GenerateSlotsResult, error)
}

// SlotHandler handles HTTP requests for slot operations.
type SlotHandler struct {
	service   SlotServiceInterface
	validator *validator.Validate
}

// NewSlotHandler creates a new SlotHandler with the given service and validator.
func NewSlotHandler(svc SlotServiceInterface, v *validator.Validate) *SlotHandler {
	return &SlotHandler{service: svc, validator: v}
}

// ListSlots handles GET /api/slots?trek=... requests.
func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	trekKey := c.Query("trek")
	slots, err := h.service.List(c.UserContext(), trekKey)
	if err != nil {
		return respondError(c, err, "failed to list slots")
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	return c.JSON(fiber.Map{"slots": slots})
}

// GetSlot handles GET /api/slots/:id requests.
func (h *SlotHandler) GetSlot(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, invalidIDMessage)
	}
	slot, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "failed to get slot")
	}
	return c.JSON(slot)
}

// CreateSlot handles POST /api/slots requests.
func (h *SlotHandler) CreateSlot(c *fiber.Ctx) error {
	var req model.CreateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	slot, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to create slot")
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

// UpdateSlot handles PATCH /api/slots/:id requests.
func (h *SlotHandler) UpdateSlot(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, invalidIDMessage)
	}
	var req model.UpdateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	slot, err := h.service.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update slot")
	}
	return c.JSON(slot)
}

// DeleteSlot handles DELETE /api/slots/:id requests.
func (h *SlotHandler) DeleteSlot(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, invalidIDMessage)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err, "failed to delete slot")
	}

	withRequest(log.Info(), c).Str("slot_id", id.String()).Msg("slot removed")
	return c.JSON(fiber.Map{"success": true})
}

// GenerateSlots handles POST /api/admin/slots/generate requests.
func (h *SlotHandler) GenerateSlots(c *fiber.Ctx) error {
	var req model.GenerateSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	result, err := h.service.Generate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to generate slots")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
