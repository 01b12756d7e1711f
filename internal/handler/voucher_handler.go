package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/trek-booking-system/internal/auth"
	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
)

// VoucherServiceInterface defines the interface for voucher business logic.
type VoucherServiceInterface interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal, userID string) (*model.VoucherQuote, error)
	Create(ctx context.Context, req *model.CreateVoucherRequest) (*model.Voucher, error)
	List(ctx context.Context) ([]model.Voucher, error)
}

// voucherRejections are reported as {"valid": false} rather than as request failures.
var voucherRejections = []error{
	service.ErrVoucherNotFound,
	service.ErrVoucherNotForUser,
	service.ErrVoucherAlreadyUsed,
	service.ErrVoucherExpired,
	service.ErrVoucherMinimumAmount,
	service.ErrInvalidAmount,
}

// VoucherHandler handles HTTP requests for voucher operations.
type VoucherHandler struct {
	service   VoucherServiceInterface
	validator *validator.Validate
}

// NewVoucherHandler creates a new VoucherHandler with the given service and validator.
func NewVoucherHandler(svc VoucherServiceInterface, v *validator.Validate) *VoucherHandler {
	return &VoucherHandler{service: svc, validator: v}
}

// ValidateVoucher handles POST /api/vouchers/validate requests.
// The user id defaults to the caller's session when the body omits it.
func (h *VoucherHandler) ValidateVoucher(c *fiber.Ctx) error {
	var req model.ValidateVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	userID := req.UserID
	if sess := auth.SessionFrom(c); userID == "" && sess != nil {
		userID = sess.UserID
	}

	quote, err := h.service.Validate(c.UserContext(), req.Code, *req.Amount, userID)
	if err != nil {
		if isAny(err, voucherRejections) {
			return c.JSON(model.ValidateVoucherResponse{Valid: false, Error: err.Error()})
		}
		return respondError(c, err, "failed to validate voucher")
	}

	return c.JSON(model.ValidateVoucherResponse{
		Valid:          true,
		Code:           quote.Voucher.Code,
		DiscountAmount: &quote.DiscountAmount,
		FinalAmount:    &quote.FinalAmount,
		Informational:  quote.Informational,
		Description:    quote.Voucher.Description,
	})
}

// CreateVoucher handles POST /api/admin/vouchers requests.
func (h *VoucherHandler) CreateVoucher(c *fiber.Ctx) error {
	var req model.CreateVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	voucher, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to create voucher")
	}

	withRequest(log.Info(), c).Str("code", voucher.Code).Msg("voucher created")
	return c.Status(fiber.StatusCreated).JSON(voucher)
}

// ListVouchers handles GET /api/admin/vouchers requests.
func (h *VoucherHandler) ListVouchers(c *fiber.Ctx) error {
	vouchers, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "failed to list vouchers")
	}
	return c.JSON(vouchers)
}
