package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/service"
)

var (
	badRequestErrors = []error{
		service.ErrInvalidRequest,
		service.ErrInvalidParticipants,
		service.ErrInvalidDate,
		service.ErrInvalidAmount,
		service.ErrInvalidStatus,
		service.ErrVoucherNotForUser,
		service.ErrVoucherExpired,
		service.ErrVoucherMinimumAmount,
	}
	forbiddenErrors = []error{
		service.ErrForbidden,
		service.ErrAccountNotActivated,
	}
	notFoundErrors = []error{
		service.ErrSlotNotFound,
		service.ErrBookingNotFound,
		service.ErrVoucherNotFound,
	}
	conflictErrors = []error{
		service.ErrSlotFull,
		service.ErrInvalidTransition,
		service.ErrVoucherAlreadyUsed,
		service.ErrSlotHasBookings,
		service.ErrSlotExists,
		service.ErrVoucherExists,
		service.ErrCapacityBelowBooked,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case isAny(err, badRequestErrors):
		return fiber.StatusBadRequest
	case isAny(err, forbiddenErrors):
		return fiber.StatusForbidden
	case isAny(err, notFoundErrors):
		return fiber.StatusNotFound
	case isAny(err, conflictErrors):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"error": ...} for err. Known service errors are
// surfaced verbatim; anything else is logged and reported as a 500.
func respondError(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		withRequest(log.Error(), c).Err(err).Msg(msg)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// withRequest adds the request identity fields to a log event.
func withRequest(ev *zerolog.Event, c *fiber.Ctx) *zerolog.Event {
	return ev.
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path())
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

const invalidIDMessage = "invalid request: id must be a UUID"

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// formatValidationError converts validator errors to a message naming the first offending field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		if fe.Kind() == reflect.String {
			return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
		}
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "gte", "min":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "lte":
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "datetime":
		return "invalid request: " + field + " must be a date in YYYY-MM-DD format"
	case "oneof":
		return "invalid request: " + field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "invalid request: " + field + " must be a valid email address"
	case "trekkey":
		return "invalid request: " + field + " must be a lower-case slug"
	case "uuid":
		return "invalid request: " + field + " must be a UUID"
	default:
		return "invalid request: " + field + " is invalid"
	}
}
