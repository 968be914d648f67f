// Package store persists completed embedding runs.
//
// A run bundles the optimized coordinates with everything needed to
// reproduce or inspect them: the dataset hash, the optimizer parameters, the
// cost trace, and timing. The CLI uses the file store; the HTTP server can
// share runs across replicas through the Mongo store.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunOptions records the optimizer parameters of a run.
type RunOptions struct {
	NEpochs            int     `json:"n_epochs" bson:"n_epochs"`
	InitialAlpha       float64 `json:"initial_alpha" bson:"initial_alpha"`
	Gamma              float64 `json:"gamma" bson:"gamma"`
	NegativeSampleRate float64 `json:"negative_sample_rate" bson:"negative_sample_rate"`
	MaxIter            int     `json:"max_iter" bson:"max_iter"`
	GlobalAlpha        float64 `json:"global_alpha" bson:"global_alpha"`
	CurveA             float64 `json:"curve_a" bson:"curve_a"`
	CurveB             float64 `json:"curve_b" bson:"curve_b"`
	Seed               int64   `json:"seed" bson:"seed"`
}

// Run is a persisted embedding run.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// Dataset identifies the input: the source path and a content hash.
	DatasetPath string `json:"dataset_path" bson:"dataset_path"`
	DatasetHash string `json:"dataset_hash" bson:"dataset_hash"`

	Options RunOptions `json:"options" bson:"options"`

	Embedding [][]float64 `json:"embedding" bson:"embedding"`
	Labels    []int       `json:"labels,omitempty" bson:"labels,omitempty"`
	Costs     []float64   `json:"costs,omitempty" bson:"costs,omitempty"`

	LocalMillis  int64 `json:"local_millis" bson:"local_millis"`
	GlobalMillis int64 `json:"global_millis" bson:"global_millis"`
}

// NewRun creates a run with a fresh identifier and timestamp.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Summary is the listing view of a run, without the coordinate payload.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Dataset   string    `json:"dataset_path" bson:"dataset_path"`
	Points    int       `json:"points" bson:"points"`
}

// Store persists runs.
type Store interface {
	// Save writes a run. Saving an existing ID overwrites it.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. A missing run returns a RUN_NOT_FOUND
	// error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns summaries of all runs, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}
