package publishers

import (
	"time"
)

// Event is the flow outcome published downstream.
type Event struct {
	RunID       string    `json:"run_id"`
	Flow        string    `json:"flow"`
	State       string    `json:"state"`
	StatusCode  int       `json:"status_code,omitempty"`
	Items       int       `json:"items"`
	ImageURL    string    `json:"image_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewEvent constructs an Event for one flow of a run, stamped with the current UTC time.
func NewEvent(runID, flow, state string) Event {
	return Event{
		RunID:       runID,
		Flow:        flow,
		State:       state,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes message brokers carry alongside the payload.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id": e.RunID,
		"flow":   e.Flow,
		"state":  e.State,
	}
}
