package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

// memStore is an in-memory stand-in for the three tables. Transactions are
// serialized by txMu and rolled back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	slots    map[uuid.UUID]model.Slot
	bookings map[uuid.UUID]model.Booking
	vouchers map[uuid.UUID]model.Voucher

	sumErr            error
	updateBookedCalls int
}

func newMemStore() *memStore {
	return &memStore{
		slots:    map[uuid.UUID]model.Slot{},
		bookings: map[uuid.UUID]model.Booking{},
		vouchers: map[uuid.UUID]model.Voucher{},
	}
}

type memSnapshot struct {
	slots    map[uuid.UUID]model.Slot
	bookings map[uuid.UUID]model.Booking
	vouchers map[uuid.UUID]model.Voucher
}

func (s *memStore) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		slots:    make(map[uuid.UUID]model.Slot, len(s.slots)),
		bookings: make(map[uuid.UUID]model.Booking, len(s.bookings)),
		vouchers: make(map[uuid.UUID]model.Voucher, len(s.vouchers)),
	}
	for k, v := range s.slots {
		snap.slots[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.vouchers {
		snap.vouchers[k] = v
	}
	return snap
}

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return &memTx{store: s, snap: snap}, nil
}

type memTx struct {
	pgx.Tx
	store *memStore
	snap  memSnapshot
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	t.store.slots = t.snap.slots
	t.store.bookings = t.snap.bookings
	t.store.vouchers = t.snap.vouchers
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (s *memStore) slotRepo() *memSlotRepo       { return &memSlotRepo{s} }
func (s *memStore) bookingRepo() *memBookingRepo { return &memBookingRepo{s} }
func (s *memStore) voucherRepo() *memVoucherRepo { return &memVoucherRepo{s} }

func (s *memStore) heldLocked(slotID uuid.UUID) int {
	held := 0
	for _, b := range s.bookings {
		if b.SlotID == slotID && b.Status.HoldsInventory() {
			held += b.Participants
		}
	}
	return held
}

func (s *memStore) seedSlot(trekKey, date string, capacity int, price int64) model.Slot {
	d, _ := model.ParseDate(date)
	slot := model.Slot{
		ID:       uuid.New(),
		TrekKey:  trekKey,
		Date:     d,
		Capacity: capacity,
		Status:   model.SlotOpen,
		Price:    decimal.NewFromInt(price),
	}
	s.mu.Lock()
	s.slots[slot.ID] = slot
	s.mu.Unlock()
	return slot
}

func (s *memStore) seedBooking(slot model.Slot, userID string, participants int, status model.BookingStatus) model.Booking {
	b := model.Booking{
		ID:            uuid.New(),
		UserID:        userID,
		TrekKey:       slot.TrekKey,
		SlotID:        slot.ID,
		TrekDate:      slot.Date,
		Participants:  participants,
		Status:        status,
		PaymentStatus: model.PaymentPending,
		TotalAmount:   decimal.NewFromInt(100),
		CustomerName:  "Pemba Sherpa",
		CustomerEmail: "pemba@example.com",
	}
	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()
	return b
}

func (s *memStore) seedVoucher(v model.Voucher) model.Voucher {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.MaxUses == 0 {
		v.MaxUses = 1
	}
	s.mu.Lock()
	s.vouchers[v.ID] = v
	s.mu.Unlock()
	return v
}

func (s *memStore) setBooked(slotID uuid.UUID, booked int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[slotID]
	slot.Booked = booked
	s.slots[slotID] = slot
}

func (s *memStore) slot(id uuid.UUID) model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id]
}

func (s *memStore) booking(id uuid.UUID) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *memStore) voucher(id uuid.UUID) model.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vouchers[id]
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type memSlotRepo struct{ *memStore }

func (r *memSlotRepo) insertLocked(slot *model.Slot) bool {
	for _, existing := range r.slots {
		if existing.TrekKey == slot.TrekKey && existing.Date.Equal(slot.Date) {
			return false
		}
	}
	slot.Booked = 0
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	r.slots[slot.ID] = *slot
	return true
}

func (r *memSlotRepo) Insert(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.insertLocked(slot) {
		return ErrSlotExists
	}
	return nil
}

func (r *memSlotRepo) InsertIfAbsent(ctx context.Context, tx database.TxQuerier, slot *model.Slot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(slot), nil
}

func (r *memSlotRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (r *memSlotRepo) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &slot, nil
}

func (r *memSlotRepo) FindOpen(ctx context.Context, tx database.TxQuerier, trekKey string, date time.Time, lock bool) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range r.slots {
		if slot.TrekKey == trekKey && slot.Date.Equal(date) && slot.Status == model.SlotOpen {
			return &slot, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memSlotRepo) sortedLocked(trekKey string) []model.Slot {
	out := []model.Slot{}
	for _, slot := range r.slots {
		if trekKey == "" || slot.TrekKey == trekKey {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrekKey != out[j].TrekKey {
			return out[i].TrekKey < out[j].TrekKey
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (r *memSlotRepo) ListIDs(ctx context.Context, trekKey string) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uuid.UUID{}
	for _, slot := range r.sortedLocked(trekKey) {
		ids = append(ids, slot.ID)
	}
	return ids, nil
}

func (r *memSlotRepo) ListWithHeld(ctx context.Context, trekKey string) ([]model.SlotHeld, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SlotHeld{}
	for _, slot := range r.sortedLocked(trekKey) {
		out = append(out, model.SlotHeld{Slot: slot, Held: r.heldLocked(slot.ID)})
	}
	return out, nil
}

func (r *memSlotRepo) Update(ctx context.Context, tx database.TxQuerier, slot *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.slots[slot.ID]
	if !ok {
		return ErrSlotNotFound
	}
	for _, other := range r.slots {
		if other.ID != slot.ID && other.TrekKey == existing.TrekKey && other.Date.Equal(slot.Date) {
			return ErrSlotExists
		}
	}
	existing.Date = slot.Date
	existing.Capacity = slot.Capacity
	existing.Status = slot.Status
	existing.Price = slot.Price
	existing.UpdatedAt = time.Now()
	r.slots[slot.ID] = existing
	slot.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memSlotRepo) UpdateBooked(ctx context.Context, tx database.TxQuerier, id uuid.UUID, booked int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	r.updateBookedCalls++
	slot.Booked = booked
	r.slots[id] = slot
	return nil
}

func (r *memSlotRepo) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	for _, b := range r.bookings {
		if b.SlotID == id {
			return ErrSlotHasBookings
		}
	}
	delete(r.slots, id)
	return nil
}

type memBookingRepo struct{ *memStore }

func (r *memBookingRepo) Insert(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memBookingRepo) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) Update(ctx context.Context, tx database.TxQuerier, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	b.UpdatedAt = time.Now()
	r.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) SumHeldParticipants(ctx context.Context, q database.TxQuerier, slotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sumErr != nil {
		return 0, r.sumErr
	}
	return r.heldLocked(slotID), nil
}

func (r *memBookingRepo) CountBySlot(ctx context.Context, tx database.TxQuerier, slotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.SlotID == slotID {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Booking{}
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.TrekKey != "" && b.TrekKey != filter.TrekKey {
			continue
		}
		if filter.SlotID != nil && b.SlotID != *filter.SlotID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type memVoucherRepo struct{ *memStore }

func (r *memVoucherRepo) Insert(ctx context.Context, v *model.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vouchers {
		if existing.Code == v.Code {
			return ErrVoucherExists
		}
	}
	v.CreatedAt = time.Now()
	r.vouchers[v.ID] = *v
	return nil
}

func (r *memVoucherRepo) GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.Code == code {
			return &v, nil
		}
	}
	return nil, nil
}

func (r *memVoucherRepo) Redeem(ctx context.Context, tx database.TxQuerier, voucherID, bookingID uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok || v.IsUsed || v.UseCount >= v.MaxUses {
		return ErrVoucherAlreadyUsed
	}
	now := time.Now()
	v.UseCount++
	v.IsUsed = v.UseCount >= v.MaxUses
	v.UsedAt = &now
	v.UsedBy = &userID
	v.UsedBookingID = &bookingID
	r.vouchers[voucherID] = v
	return nil
}

func (r *memVoucherRepo) List(ctx context.Context) ([]model.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Voucher{}
	for _, v := range r.vouchers {
		out = append(out, v)
	}
	return out, nil
}
