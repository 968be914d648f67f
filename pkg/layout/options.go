package layout

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/HunRotation/umato/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultInitialAlpha is the starting learning rate for the local pass.
	DefaultInitialAlpha = 1.0

	// DefaultGamma is the repulsion strength for negative samples.
	DefaultGamma = 1.0

	// DefaultNegativeSampleRate is the number of negative samples drawn per
	// positive edge sample.
	DefaultNegativeSampleRate = 5.0

	// DefaultGlobalAlpha is the step size for the global refiner.
	DefaultGlobalAlpha = 0.01

	// DefaultSeed seeds the random state when none is supplied.
	DefaultSeed = 42

	// DefaultSigma is the Gaussian bandwidth of the DTM cost estimate.
	DefaultSigma = 0.1
)

// Curve holds the shape parameters of the similarity kernel
// Q(d) = (1 + a·d^(2b))⁻¹ shared by both optimization stages.
// The parameters are fixed for the duration of a run.
type Curve struct {
	A float64 `json:"a" bson:"a"`
	B float64 `json:"b" bson:"b"`
}

// Snapshot receives intermediate coordinates during optimization.
//
// Emits are a side channel for visualization and debugging: they happen at
// epoch/iteration boundaries only, and a failed emit never aborts the run
// (the error is reported through the optimizer hooks and dropped).
type Snapshot interface {
	Emit(ctx context.Context, coords [][]float64, labels []int, tag string) error
}

// =============================================================================
// Local Options
// =============================================================================

// LocalOptions configures the local layout optimizer.
type LocalOptions struct {
	// NEpochs is the number of SGD epochs. Zero epochs leaves the
	// coordinates untouched.
	NEpochs int

	// InitialAlpha is the starting learning rate. The rate decays linearly:
	// alpha(n) = InitialAlpha * (1 - n/NEpochs).
	InitialAlpha float64

	// Gamma scales the repulsive force of negative samples.
	Gamma float64

	// NegativeSampleRate is the number of negative samples per positive
	// sample. A rate <= 0 disables negative sampling entirely.
	NegativeSampleRate float64

	// Workers is the number of goroutines processing edges within an epoch.
	// Values <= 1 run sequentially and deterministically. Higher values use
	// per-worker RNG substreams and unsynchronized coordinate writes;
	// epoch boundaries remain a hard synchronization barrier.
	Workers int

	// RandState is the shared random state for negative sampling.
	// Defaults to NewRandState(DefaultSeed).
	RandState *RandState

	// Snapshot, if set, receives coordinates every SnapshotEvery epochs.
	Snapshot      Snapshot
	SnapshotEvery int

	// Labels are optional per-point labels forwarded to the snapshot sink.
	Labels []int

	// Logger for progress output. Defaults to a discarding logger.
	Logger *log.Logger
}

// setDefaults applies defaults and validates ranges.
func (o *LocalOptions) setDefaults() error {
	if o.NEpochs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "n_epochs must be non-negative, got %d", o.NEpochs)
	}
	if o.InitialAlpha == 0 {
		o.InitialAlpha = DefaultInitialAlpha
	}
	if o.Gamma == 0 {
		o.Gamma = DefaultGamma
	}
	if o.RandState == nil {
		o.RandState = NewRandState(DefaultSeed)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Snapshot != nil && o.SnapshotEvery < 1 {
		o.SnapshotEvery = 10
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// =============================================================================
// Global Options
// =============================================================================

// GlobalOptions configures the global layout refiner.
type GlobalOptions struct {
	// MaxIter is the number of full gradient iterations. Zero iterations
	// leaves the coordinates untouched.
	MaxIter int

	// Alpha is the fixed step size. Defaults to DefaultGlobalAlpha.
	Alpha float64

	// ComputeCost enables the per-iteration DTM divergence estimate.
	// The cost is diagnostic only; it never feeds back into the update.
	ComputeCost bool

	// Sigma is the Gaussian bandwidth of the DTM estimate.
	// Defaults to DefaultSigma.
	Sigma float64

	// Snapshot, if set, receives coordinates every SnapshotEvery iterations.
	Snapshot      Snapshot
	SnapshotEvery int

	// Labels are optional per-point labels forwarded to the snapshot sink.
	Labels []int

	// Logger for progress output. Defaults to a discarding logger.
	Logger *log.Logger
}

func (o *GlobalOptions) setDefaults() error {
	if o.MaxIter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_iter must be non-negative, got %d", o.MaxIter)
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultGlobalAlpha
	}
	if o.Sigma == 0 {
		o.Sigma = DefaultSigma
	}
	if o.Snapshot != nil && o.SnapshotEvery < 1 {
		o.SnapshotEvery = 4
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}
