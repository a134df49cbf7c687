package refresh

import (
	"time"

	"hatewatch-dashboard/internal/model"
)

// FetchErrorMessage is shown for every failed cycle, whatever the cause.
const FetchErrorMessage = "Failed to fetch data. Make sure the API server is running."

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Snapshot is an immutable view of the coordinator state. Slices and maps are
// shared between snapshots and must be treated as read-only.
type Snapshot struct {
	Generation   uint64                `json:"generation"`
	Loading      bool                  `json:"loading"`
	Err          string                `json:"error,omitempty"`
	Stats        *model.Stats          `json:"stats"`
	Alerts       []model.Alert         `json:"alerts"`
	NewAlerts    map[int64]bool        `json:"new_alerts,omitempty"`
	Timeline     []model.TimelinePoint `json:"timeline"`
	TimelineDays int                   `json:"timeline_days"`
	Countries    []string              `json:"countries"`
	Country      string                `json:"country"`
	LastUpdated  time.Time             `json:"last_updated"`
	Interval     time.Duration         `json:"-"`
}

// Status collapses the flags into the three observable states. Loading wins
// over error so a manual retry shows progress.
func (s Snapshot) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Err != "":
		return StatusError
	default:
		return StatusReady
	}
}

// HasData reports whether any cycle has succeeded yet.
func (s Snapshot) HasData() bool { return s.Stats != nil }
