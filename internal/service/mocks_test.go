package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

// mockSlotRepository is a mock implementation of SlotRepositoryInterface.
type mockSlotRepository struct {
	insertFn         func(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error
	insertIfAbsentFn func(ctx context.Context, tx database.TxQuerier, slot *model.Slot) (bool, error)
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	getForUpdateFn   func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Slot, error)
	findOpenFn       func(ctx context.Context, tx database.TxQuerier, trekKey string, date time.Time, lock bool) (*model.Slot, error)
	listIDsFn        func(ctx context.Context, trekKey string) ([]uuid.UUID, error)
	listWithHeldFn   func(ctx context.Context, trekKey string) ([]model.SlotHeld, error)
	updateFn         func(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error
	updateBookedFn   func(ctx context.Context, tx database.TxQuerier, id uuid.UUID, booked int) error
	deleteFn         func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

func (m *mockSlotRepository) Insert(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, slot)
	}
	return nil
}

func (m *mockSlotRepository) InsertIfAbsent(ctx context.Context, tx database.TxQuerier, slot *model.Slot) (bool, error) {
	if m.insertIfAbsentFn != nil {
		return m.insertIfAbsentFn(ctx, tx, slot)
	}
	return true, nil
}

func (m *mockSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSlotRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Slot, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrSlotNotFound
}

func (m *mockSlotRepository) FindOpen(ctx context.Context, tx database.TxQuerier, trekKey string, date time.Time, lock bool) (*model.Slot, error) {
	if m.findOpenFn != nil {
		return m.findOpenFn(ctx, tx, trekKey, date, lock)
	}
	return nil, ErrSlotNotFound
}

func (m *mockSlotRepository) ListIDs(ctx context.Context, trekKey string) ([]uuid.UUID, error) {
	if m.listIDsFn != nil {
		return m.listIDsFn(ctx, trekKey)
	}
	return []uuid.UUID{}, nil
}

func (m *mockSlotRepository) ListWithHeld(ctx context.Context, trekKey string) ([]model.SlotHeld, error) {
	if m.listWithHeldFn != nil {
		return m.listWithHeldFn(ctx, trekKey)
	}
	return []model.SlotHeld{}, nil
}

func (m *mockSlotRepository) Update(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx, slot)
	}
	return nil
}

func (m *mockSlotRepository) UpdateBooked(ctx context.Context, tx database.TxQuerier, id uuid.UUID, booked int) error {
	if m.updateBookedFn != nil {
		return m.updateBookedFn(ctx, tx, id, booked)
	}
	return nil
}

func (m *mockSlotRepository) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return nil
}

// mockBookingRepository is a mock implementation of BookingRepositoryInterface.
type mockBookingRepository struct {
	insertFn       func(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	getForUpdateFn func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error)
	updateFn       func(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error
	sumHeldFn      func(ctx context.Context, q database.TxQuerier, slotID uuid.UUID) (int, error)
	countBySlotFn  func(ctx context.Context, tx database.TxQuerier, slotID uuid.UUID) (int, error)
	listFn         func(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
}

func (m *mockBookingRepository) Insert(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, booking)
	}
	return nil
}

func (m *mockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrBookingNotFound
}

func (m *mockBookingRepository) Update(ctx context.Context, tx database.TxQuerier, booking *model.Booking) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx, booking)
	}
	return nil
}

func (m *mockBookingRepository) SumHeldParticipants(ctx context.Context, q database.TxQuerier, slotID uuid.UUID) (int, error) {
	if m.sumHeldFn != nil {
		return m.sumHeldFn(ctx, q, slotID)
	}
	return 0, nil
}

func (m *mockBookingRepository) CountBySlot(ctx context.Context, tx database.TxQuerier, slotID uuid.UUID) (int, error) {
	if m.countBySlotFn != nil {
		return m.countBySlotFn(ctx, tx, slotID)
	}
	return 0, nil
}

func (m *mockBookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []model.Booking{}, nil
}

// mockVoucherRepository is a mock implementation of VoucherRepositoryInterface.
type mockVoucherRepository struct {
	insertFn    func(ctx context.Context, voucher *model.Voucher) error
	getByCodeFn func(ctx context.Context, q database.TxQuerier, code string) (*model.Voucher, error)
	redeemFn    func(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error
	listFn      func(ctx context.Context) ([]model.Voucher, error)
}

func (m *mockVoucherRepository) Insert(ctx context.Context, voucher *model.Voucher) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, voucher)
	}
	return nil
}

func (m *mockVoucherRepository) GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Voucher, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, q, code)
	}
	return nil, nil
}

func (m *mockVoucherRepository) Redeem(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error {
	if m.redeemFn != nil {
		return m.redeemFn(ctx, tx, voucherID, bookingID, userID)
	}
	return nil
}

func (m *mockVoucherRepository) List(ctx context.Context) ([]model.Voucher, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Voucher{}, nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

// recordingNotifier captures enqueued notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *recordingNotifier) Enqueue(msg model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) events() []model.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.NotificationEvent, 0, len(n.sent))
	for _, msg := range n.sent {
		out = append(out, msg.Event)
	}
	return out
}

func (n *recordingNotifier) count(event model.NotificationEvent) int {
	c := 0
	for _, e := range n.events() {
		if e == event {
			c++
		}
	}
	return c
}

// stubReconciler returns a fixed error from ReconcileOne.
type stubReconciler struct {
	err   error
	calls int
}

func (s *stubReconciler) ReconcileOne(ctx context.Context, slotID uuid.UUID) (*model.ReconcileResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.ReconcileResult{SlotID: slotID}, nil
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
