package storage

import "time"

// DefaultSlot is the slot the tracker document lives in unless configured
// otherwise.
const DefaultSlot = "m72_elite_v4"

// SlotInfo describes a stored document without its body.
type SlotInfo struct {
	Name      string
	Revision  int64
	Bytes     int
	UpdatedAt time.Time
}

// SyncEvent is one outbound webhook attempt.
type SyncEvent struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	URL        string    `json:"url"`
	Mode       string    `json:"mode"` // json | simple
	StatusCode int       `json:"statusCode"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail,omitempty"`
	Bytes      int       `json:"bytes"`
}

// Stats summarizes the database for `m72 db stats`.
type Stats struct {
	Slots       []SlotInfo
	SyncEvents  int
	FailedSyncs int
	LastSync    time.Time
}
