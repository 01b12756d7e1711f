package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

// SlotRepositoryInterface defines the interface for slot data access.
type SlotRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error
	InsertIfAbsent(ctx context.Context, tx database.TxQuerier, slot *model.Slot) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Slot, error)
	FindOpen(ctx context.Context, tx database.TxQuerier, trekKey string, date time.Time, lock bool) (*model.Slot, error)
	ListIDs(ctx context.Context, trekKey string) ([]uuid.UUID, error)
	ListWithHeld(ctx context.Context, trekKey string) ([]model.SlotHeld, error)
	Update(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error
	UpdateBooked(ctx context.Context, tx database.TxQuerier, id uuid.UUID, booked int) error
	Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// BookingRepositoryInterface defines the interface for booking data access.
type BookingRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error)
	Update(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error
	SumHeldParticipants(ctx context.Context, q database.TxQuerier, slotID uuid.UUID) (int, error)
	CountBySlot(ctx context.Context, tx database.TxQuerier, slotID uuid.UUID) (int, error)
	List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
}

// VoucherRepositoryInterface defines the interface for voucher data access.
type VoucherRepositoryInterface interface {
	Insert(ctx context.Context, voucher *model.Voucher) error
	GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Voucher, error)
	Redeem(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error
	List(ctx context.Context) ([]model.Voucher, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
