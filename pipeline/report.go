package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Report is the aggregate outcome of one pipeline run. It is created at the
// start of the run, filled in additively as stages complete, and returned to
// the caller. Success is true iff every mandatory stage succeeded; optional
// failures only append to Errors.
type Report struct {
	RunID         string            `json:"run_id"`
	Success       bool              `json:"success"`
	Topic         string            `json:"topic,omitempty"`
	ServiceFocus  string            `json:"service_focus,omitempty"`
	Artifacts     map[string]string `json:"artifacts"`
	Captions      map[string]string `json:"captions,omitempty"`
	Errors        []string          `json:"errors,omitempty"`
	PublishedURLs map[string]string `json:"published_urls,omitempty"`
	Message       string            `json:"message,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`

	// failure is the error of the mandatory stage that aborted the run,
	// kept separate from the optional-stage warnings in Errors so retry
	// classification never reads an unrelated warning's text.
	failure error
}

func newReport(runID string) *Report {
	return &Report{
		RunID:         runID,
		Artifacts:     make(map[string]string),
		PublishedURLs: make(map[string]string),
		StartedAt:     time.Now().UTC(),
	}
}

// recordError appends a stage-prefixed error string.
func (r *Report) recordError(stage string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", stage, err))
}

// FlattenedErrors joins all recorded errors into one string for display.
func (r *Report) FlattenedErrors() string {
	return strings.Join(r.Errors, "; ")
}

// FailureError returns the error that aborted the run, or nil for a
// successful run.
func (r *Report) FailureError() error {
	return r.failure
}

// Summary is the single human-readable line surfaced by the HTTP layer.
func (r *Report) Summary() string {
	if r.Success {
		return fmt.Sprintf("video generated for %q (%d warnings)", r.Topic, len(r.Errors))
	}
	if r.Message != "" {
		return r.Message
	}
	return "video generation failed: " + r.FlattenedErrors()
}
