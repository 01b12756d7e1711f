package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReconcileResult is the outcome of reconciling a single slot.
type ReconcileResult struct {
	SlotID   uuid.UUID `json:"slotId"`
	Previous int       `json:"previous"`
	Booked   int       `json:"booked"`
	Updated  bool      `json:"updated"`
}

// SlotSyncResult is one line of a bulk reconciliation report.
type SlotSyncResult struct {
	SlotID   uuid.UUID `json:"slotId"`
	Success  bool      `json:"success"`
	Previous int       `json:"previous"`
	Booked   int       `json:"booked"`
	Updated  bool      `json:"updated"`
	Error    string    `json:"error,omitempty"`
}

// SyncReport summarizes a bulk reconciliation. Reconciliation and audit
// reports share the camelCase field names of the sync endpoint.
type SyncReport struct {
	Success      bool             `json:"success"`
	TrekKey      string           `json:"trekKey,omitempty"`
	TotalSlots   int              `json:"totalSlots"`
	UpdatedSlots int              `json:"updatedSlots"`
	FailedSlots  int              `json:"failedSlots"`
	Slots        []SlotSyncResult `json:"slots"`
}

// Add records one slot result and keeps the totals current.
func (r *SyncReport) Add(res SlotSyncResult) {
	r.Slots = append(r.Slots, res)
	r.TotalSlots++
	if res.Updated {
		r.UpdatedSlots++
	}
	if !res.Success {
		r.FailedSlots++
	}
	r.Success = r.FailedSlots == 0
}

// SlotHeld pairs a slot with the participants its bookings currently hold.
type SlotHeld struct {
	Slot Slot
	Held int
}

// SlotAudit compares a slot's stored counter with the value derived from bookings.
type SlotAudit struct {
	SlotID     uuid.UUID  `json:"slotId"`
	TrekKey    string     `json:"trekKey"`
	Date       time.Time  `json:"-"`
	Status     SlotStatus `json:"status"`
	Capacity   int        `json:"capacity"`
	Stored     int        `json:"stored"`
	Computed   int        `json:"computed"`
	InSync     bool       `json:"inSync"`
	Overbooked bool       `json:"overbooked"`
}

// MarshalJSON renders the date without a time component.
func (a SlotAudit) MarshalJSON() ([]byte, error) {
	type alias SlotAudit
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(a),
		Date:  a.Date.Format(DateLayout),
	})
}

// AuditReport is the read-only drift report across slots.
type AuditReport struct {
	TotalSlots int         `json:"totalSlots"`
	OutOfSync  int         `json:"outOfSync"`
	Overbooked int         `json:"overbooked"`
	Slots      []SlotAudit `json:"slots"`
}

// NewAuditReport derives the totals for a set of audited slots.
func NewAuditReport(slots []SlotAudit) *AuditReport {
	if slots == nil {
		slots = []SlotAudit{}
	}
	report := &AuditReport{TotalSlots: len(slots), Slots: slots}
	for i := range slots {
		slots[i].InSync = slots[i].Stored == slots[i].Computed
		slots[i].Overbooked = slots[i].Computed > slots[i].Capacity
		if !slots[i].InSync {
			report.OutOfSync++
		}
		if slots[i].Overbooked {
			report.Overbooked++
		}
	}
	return report
}
