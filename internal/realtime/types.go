package realtime

import (
	"time"

	"github.com/wonny/stockdash/internal/introspect"
	"github.com/wonny/stockdash/internal/state"
)

// EventType names a push message
type EventType string

const (
	EventDatasetLoaded EventType = "dataset.loaded"
	EventDatasetReset  EventType = "dataset.reset"
)

// Event is pushed to every connected dashboard when the dataset changes
// ⭐ SSOT: 웹소켓 메시지 구조
type Event struct {
	Type      EventType          `json:"type"`
	Snapshot  *state.Summary     `json:"snapshot,omitempty"`
	Options   introspect.Options `json:"options,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// SnapshotEvent describes a store change; a nil snapshot means reset
func SnapshotEvent(snap *state.Snapshot) Event {
	if snap == nil {
		return Event{Type: EventDatasetReset, Timestamp: time.Now().UTC()}
	}

	summary := snap.Summary()
	return Event{
		Type:      EventDatasetLoaded,
		Snapshot:  &summary,
		Options:   snap.Options,
		Timestamp: time.Now().UTC(),
	}
}
