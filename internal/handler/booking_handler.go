package handler

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/auth"
	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// BookingServiceInterface defines the interface for booking business logic.
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, sess *model.Session, req *model.CreateBookingRequest) (*model.Booking, error)
	Transition(ctx context.Context, actor *model.Session, id uuid.UUID, req *model.UpdateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, actor *model.Session, id uuid.UUID) (*model.Booking, error)
	ListBookings(ctx context.Context, actor *model.Session, filter model.BookingFilter) ([]model.Booking, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service   BookingServiceInterface
	validator *validator.Validate
}

// NewBookingHandler creates a new BookingHandler with the given service and validator.
func NewBookingHandler(svc BookingServiceInterface, v *validator.Validate) *BookingHandler {
	return &BookingHandler{service: svc, validator: v}
}

// CreateBooking handles POST /api/bookings requests.
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var req model.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	sess := auth.SessionFrom(c)
	booking, err := h.service.CreateBooking(c.UserContext(), sess, &req)
	if err != nil {
		return respondError(c, err, "failed to create booking")
	}

	withRequest(log.Info(), c).
		Str("booking_id", booking.ID.String()).
		Str("user_id", booking.UserID).
		Msg("booking received")
	return c.Status(fiber.StatusCreated).JSON(booking)
}

// UpdateBooking handles PATCH /api/bookings/:id requests.
func (h *BookingHandler) UpdateBooking(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, invalidIDMessage)
	}
	var req model.UpdateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	booking, err := h.service.Transition(c.UserContext(), auth.SessionFrom(c), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update booking")
	}
	return c.JSON(booking)
}

// GetBooking handles GET /api/bookings/:id requests.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, invalidIDMessage)
	}
	booking, err := h.service.GetBooking(c.UserContext(), auth.SessionFrom(c), id)
	if err != nil {
		return respondError(c, err, "failed to get booking")
	}
	return c.JSON(booking)
}

// ListBookings handles GET /api/bookings requests.
// Query parameters: trek, status, slot_id, user_id (admins only), limit, offset.
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	filter := model.BookingFilter{
		TrekKey: c.Query("trek"),
		UserID:  c.Query("user_id"),
	}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseBookingStatus(s)
		if err != nil {
			return badRequest(c, "invalid request: status is invalid")
		}
		filter.Status = status
	}
	if s := c.Query("slot_id"); s != "" {
		slotID, err := uuid.Parse(s)
		if err != nil {
			return badRequest(c, "invalid request: slot_id must be a UUID")
		}
		filter.SlotID = &slotID
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if s := c.Query(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return badRequest(c, "invalid request: "+name+" must be a non-negative integer")
			}
			*dst = n
		}
	}

	bookings, err := h.service.ListBookings(c.UserContext(), auth.SessionFrom(c), filter)
	if err != nil {
		return respondError(c, err, "failed to list bookings")
	}
	return c.JSON(bookings)
}
