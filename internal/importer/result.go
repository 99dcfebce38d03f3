package importer

import (
	"fmt"
	"time"
)

// State is a phase of an import run
type State string

const (
	StateIdle        State = "idle"
	StateParsing     State = "parsing"
	StatePerItem     State = "per_item"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
)

// Observer is notified on every state transition. Row is the current item row in StatePerItem, else 0.
type Observer func(runID string, state State, row int)

// Result is the tally of one import run. Success reflects only the absence of errors;
// warnings can be numerous and still need review.
type Result struct {
	RunID           string        `json:"runId"`
	Success         bool          `json:"success"`
	State           State         `json:"state"`
	Processed       int           `json:"processed"`
	Created         int           `json:"created"`
	Updated         int           `json:"updated"`
	VariantsCreated int           `json:"variantsCreated"`
	VariantsUpdated int           `json:"variantsUpdated"`
	Errors          []string      `json:"errors"`
	Warnings        []string      `json:"warnings"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration" jsonschema:"type=integer"`
}

func (r *Result) addError(row int, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("item %d: %v", row, err))
}

func (r *Result) addWarning(row int, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("item %d: ", row)+fmt.Sprintf(format, args...))
}

// Summary renders the counters on one line for logs and CLI output
func (r *Result) Summary() string {
	return fmt.Sprintf("processed=%d created=%d updated=%d variants_created=%d variants_updated=%d errors=%d warnings=%d",
		r.Processed, r.Created, r.Updated, r.VariantsCreated, r.VariantsUpdated, len(r.Errors), len(r.Warnings))
}
