package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
)

func TestBookingRepository_Insert(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	tx := &mockPool{queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
		capturedSQL, capturedArgs = sql, args
		return &mockRow{}
	}}
	b := &model.Booking{
		ID:            uuid.New(),
		UserID:        "user-1",
		TrekKey:       "poon-hill",
		SlotID:        uuid.New(),
		Participants:  3,
		Status:        model.StatusPendingApproval,
		PaymentStatus: model.PaymentPending,
		TotalAmount:   decimal.NewFromInt(2400),
		CustomerName:  "Ang Dorje",
	}

	err := NewBookingRepositoryWithPool(&mockPool{}).Insert(context.Background(), tx, b)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO bookings")
	assert.Contains(t, capturedSQL, "$18")
	require.Len(t, capturedArgs, 18)
	assert.Equal(t, 3, capturedArgs[5])
	assert.Equal(t, model.StatusPendingApproval, capturedArgs[6])
}

func TestBookingRepository_Insert_Error(t *testing.T) {
	dbErr := errors.New("insert failed")
	tx := &mockPool{queryRowFn: rowErr(dbErr)}

	err := NewBookingRepositoryWithPool(&mockPool{}).Insert(context.Background(), tx, &model.Booking{ID: uuid.New()})

	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "insert booking")
}

func TestBookingRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockPool{queryRowFn: rowErr(pgx.ErrNoRows)}

	b, err := NewBookingRepositoryWithPool(mock).GetByID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestBookingRepository_GetForUpdate_NotFound(t *testing.T) {
	var capturedSQL string
	tx := &mockPool{queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
		capturedSQL = sql
		return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
	}}

	b, err := NewBookingRepositoryWithPool(&mockPool{}).GetForUpdate(context.Background(), tx, uuid.New())

	assert.Nil(t, b)
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
	assert.Contains(t, capturedSQL, "FOR UPDATE")
}

func TestBookingRepository_Update_NotFound(t *testing.T) {
	mock := &mockPool{queryRowFn: rowErr(pgx.ErrNoRows)}

	err := NewBookingRepositoryWithPool(mock).Update(context.Background(), nil, &model.Booking{ID: uuid.New()})

	assert.ErrorIs(t, err, service.ErrBookingNotFound)
}

func TestBookingRepository_SumHeldParticipants(t *testing.T) {
	slotID := uuid.New()
	var capturedArgs []any
	mock := &mockPool{queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
		capturedArgs = args
		return &mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*int)) = 9
			return nil
		}}
	}}

	held, err := NewBookingRepositoryWithPool(mock).SumHeldParticipants(context.Background(), nil, slotID)

	require.NoError(t, err)
	assert.Equal(t, 9, held)
	require.Len(t, capturedArgs, 2)
	assert.Equal(t, slotID, capturedArgs[0])
	assert.NotContains(t, capturedArgs[1], "cancelled")
	assert.NotContains(t, capturedArgs[1], "completed")
}

func TestBookingRepository_SumHeldParticipants_Error(t *testing.T) {
	dbErr := errors.New("statement timeout")
	mock := &mockPool{queryRowFn: rowErr(dbErr)}

	_, err := NewBookingRepositoryWithPool(mock).SumHeldParticipants(context.Background(), nil, uuid.New())

	assert.ErrorIs(t, err, dbErr)
}

func TestBookingRepository_CountBySlot(t *testing.T) {
	mock := &mockPool{queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
		assert.NotContains(t, sql, "status")
		return &mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*int)) = 2
			return nil
		}}
	}}

	n, err := NewBookingRepositoryWithPool(mock).CountBySlot(context.Background(), nil, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBookingRepository_List_BuildsQuery(t *testing.T) {
	slotID := uuid.New()
	stop := errors.New("stop")

	tests := []struct {
		name       string
		filter     model.BookingFilter
		wantWhere  []string
		wantArgs   []any
		wantNoCond bool
	}{
		{
			name:       "no filter clamps limit",
			filter:     model.BookingFilter{Limit: 5000, Offset: -3},
			wantArgs:   []any{100, 0},
			wantNoCond: true,
		},
		{
			name:      "user and status",
			filter:    model.BookingFilter{UserID: "user-1", Status: model.StatusConfirmed, Limit: 10, Offset: 20},
			wantWhere: []string{"user_id = $1", "status = $2", "LIMIT $3 OFFSET $4"},
			wantArgs:  []any{"user-1", model.StatusConfirmed, 10, 20},
		},
		{
			name:      "trek and slot",
			filter:    model.BookingFilter{TrekKey: "poon-hill", SlotID: &slotID},
			wantWhere: []string{"trek_key = $1", "slot_id = $2", "LIMIT $3 OFFSET $4"},
			wantArgs:  []any{"poon-hill", slotID, 100, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedSQL string
			var capturedArgs []any
			mock := &mockPool{queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				capturedSQL, capturedArgs = sql, args
				return nil, stop
			}}

			_, err := NewBookingRepositoryWithPool(mock).List(context.Background(), tt.filter)

			assert.ErrorIs(t, err, stop)
			for _, frag := range tt.wantWhere {
				assert.Contains(t, capturedSQL, frag)
			}
			if tt.wantNoCond {
				assert.NotContains(t, capturedSQL, "WHERE")
			}
			assert.Equal(t, tt.wantArgs, capturedArgs)
		})
	}
}
