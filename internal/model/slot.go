package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and query format of calendar dates.
const DateLayout = "2006-01-02"

// Slot is a fixed-capacity departure of one trek on one calendar date.
// Booked is a cache of the participants held by bookings; only the reconciler writes it.
type Slot struct {
	ID        uuid.UUID       `json:"id"`
	TrekKey   string          `json:"trek_key"`
	Date      time.Time       `json:"-"`
	Capacity  int             `json:"capacity"`
	Booked    int             `json:"booked"`
	Status    SlotStatus      `json:"status"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Available returns the remaining capacity, never negative.
func (s Slot) Available() int {
	if s.Booked >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Booked
}

// HasRoomFor reports whether the cached counter admits n more participants.
func (s Slot) HasRoomFor(n int) bool {
	return s.Booked+n <= s.Capacity
}

// MarshalJSON renders the date without a time component and adds the available seats.
func (s Slot) MarshalJSON() ([]byte, error) {
	type alias Slot
	return json.Marshal(struct {
		alias
		Date      string `json:"date"`
		Available int    `json:"available"`
	}{
		alias:     alias(s),
		Date:      s.Date.Format(DateLayout),
		Available: s.Available(),
	})
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// GenerateSlotsResult summarizes a bulk slot generation.
type GenerateSlotsResult struct {
	TrekKey string   `json:"trek_key"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Dates   []string `json:"dates"`
}
