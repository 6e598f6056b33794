package app

import (
	"time"
)

// FlowState is the lifecycle position of one flow within a run.
type FlowState string

const (
	StateIssued    FlowState = "issued"
	StatePending   FlowState = "pending"
	StateSucceeded FlowState = "succeeded"
	StateHTTPError FlowState = "http_error"
	StateFailed    FlowState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s FlowState) Terminal() bool {
	return s == StateSucceeded || s == StateHTTPError || s == StateFailed
}

// Outcome is the terminal result of one flow.
type Outcome struct {
	Flow       string
	State      FlowState
	StatusCode int
	// Items is the number of decoded records for a succeeded flow.
	Items int
	// ImageURL is the URL handed to the image loader, if any.
	ImageURL string
	// ErrorBody is the raw upstream body of an http_error outcome.
	ErrorBody string
	Err       error
	Elapsed   time.Duration
}

// Report collects every flow outcome of one run, in configured flow order.
type Report struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Outcomes  []Outcome
}

// Outcome returns the outcome recorded for flow.
func (r Report) Outcome(flow string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Flow == flow {
			return o, true
		}
	}
	return Outcome{}, false
}

// Count returns how many outcomes ended in state.
func (r Report) Count(state FlowState) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
