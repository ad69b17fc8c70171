// Package store persists pipeline run records so the HTTP API can report
// status while generation happens in the background.
package store

import (
	"context"
	"errors"
	"time"
)

// Run statuses, in lifecycle order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("run not found")

// Run is one pipeline execution record.
type Run struct {
	ID       string `bson:"_id" json:"id"`
	Topic    string `bson:"topic,omitempty" json:"topic,omitempty"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
	Publish  bool   `bson:"publish" json:"publish"`
	Status   string `bson:"status" json:"status"`

	VideoPath     string            `bson:"video_path,omitempty" json:"video_path,omitempty"`
	Artifacts     map[string]string `bson:"artifacts,omitempty" json:"artifacts,omitempty"`
	PublishedURLs map[string]string `bson:"published_urls,omitempty" json:"published_urls,omitempty"`
	Errors        []string          `bson:"errors,omitempty" json:"errors,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// RunStore persists run records. Implementations: MongoStore for deployments
// with a database, MemoryStore otherwise.
type RunStore interface {
	Insert(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
}
