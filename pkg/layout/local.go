package layout

import (
	"context"
	"fmt"
	"sync"

	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/graph"
	"github.com/HunRotation/umato/pkg/matrix"
	"github.com/HunRotation/umato/pkg/observability"
)

// OptimizeLocal runs the local layout pass: NEpochs epochs of per-edge
// stochastic gradient updates over the neighbor graph g.
//
// headEmb is mutated in place and returned. tailEmb is additionally mutated
// when it has the same row count as headEmb ("move other": the graph is
// symmetric over one point set and both endpoints of an edge move). Passing
// the same matrix for both is the common symmetric case. When the row
// counts differ — landmark-versus-full-set layouts — only headEmb moves.
//
// All preconditions are checked before the first coordinate is touched;
// on error the embeddings are unchanged.
func OptimizeLocal(ctx context.Context, headEmb, tailEmb [][]float64, g *graph.Graph, curve Curve, opts LocalOptions) ([][]float64, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}

	num, dim := matrix.Dims(headEmb)
	if num == 0 || dim == 0 {
		return nil, errors.New(errors.ErrCodeInvalidShape, "head embedding is empty")
	}
	if err := matrix.CheckRect(headEmb, dim); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidShape, err, "head embedding")
	}
	_, tailDim := matrix.Dims(tailEmb)
	if tailDim != dim {
		return nil, errors.New(errors.ErrCodeInvalidShape, "head embedding has %d dims, tail has %d", dim, tailDim)
	}
	if err := matrix.CheckRect(tailEmb, dim); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidShape, err, "tail embedding")
	}
	if err := g.Validate(len(headEmb), len(tailEmb)); err != nil {
		return nil, err
	}

	if opts.NEpochs == 0 {
		return headEmb, nil
	}

	st := &localState{
		headEmb:   headEmb,
		tailEmb:   tailEmb,
		head:      g.Head,
		tail:      g.Tail,
		hubs:      g.Hubs,
		eps:       g.EpochsPerSample,
		eligible:  g.HubEligible(),
		dim:       dim,
		moveOther: len(headEmb) == len(tailEmb),
		curve:     curve,
		gamma:     opts.Gamma,
	}

	// Counters are reset once here and only advance afterwards.
	st.nextSample = make([]float64, len(g.EpochsPerSample))
	copy(st.nextSample, g.EpochsPerSample)

	if opts.NegativeSampleRate > 0 {
		st.epns = make([]float64, len(g.EpochsPerSample))
		st.nextNeg = make([]float64, len(g.EpochsPerSample))
		for i, e := range g.EpochsPerSample {
			st.epns[i] = e / opts.NegativeSampleRate
			st.nextNeg[i] = st.epns[i]
		}
	}

	// Per-worker RNG substreams persist across epochs so each stream
	// advances continuously for the whole run.
	var rngs []*RandState
	if opts.Workers > 1 {
		rngs = make([]*RandState, opts.Workers)
		for w := range rngs {
			rngs[w] = opts.RandState.Fork(w)
		}
	}

	nEdges := g.EdgeCount()
	for n := 0; n < opts.NEpochs; n++ {
		alpha := opts.InitialAlpha * (1.0 - float64(n)/float64(opts.NEpochs))

		if opts.Workers <= 1 {
			for i := 0; i < nEdges; i++ {
				st.updateEdge(i, n, alpha, opts.RandState)
			}
		} else {
			runEpochParallel(st, n, alpha, nEdges, rngs)
		}

		observability.Optimizer().OnLocalEpoch(ctx, n+1, opts.NEpochs, alpha)
		opts.Logger.Debug("local epoch complete", "epoch", n+1, "total", opts.NEpochs, "alpha", alpha)

		if opts.Snapshot != nil && (n+1)%opts.SnapshotEvery == 0 {
			emitSnapshot(ctx, opts.Snapshot, headEmb, opts.Labels, fmt.Sprintf("local-%d", n+1), opts)
		}
	}

	if opts.Snapshot != nil {
		emitSnapshot(ctx, opts.Snapshot, headEmb, opts.Labels, "local-final", opts)
	}

	return headEmb, nil
}

// runEpochParallel splits the edge range into contiguous chunks, one per
// worker. Edges never share per-edge counters, but coordinate rows are
// written without synchronization (hogwild-style), so parallel runs trade
// bit-for-bit reproducibility for throughput. Epoch boundaries remain a
// hard barrier: the learning rate and counters depend on the completed
// epoch index.
func runEpochParallel(st *localState, n int, alpha float64, nEdges int, rngs []*RandState) {
	workers := len(rngs)
	chunk := (nEdges + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= nEdges {
			break
		}
		hi := lo + chunk
		if hi > nEdges {
			hi = nEdges
		}
		wg.Add(1)
		go func(lo, hi int, rng *RandState) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				st.updateEdge(i, n, alpha, rng)
			}
		}(lo, hi, rngs[w])
	}
	wg.Wait()
}

// emitSnapshot forwards coordinates to the snapshot sink. Sink failures are
// reported through the optimizer hooks and logged, never propagated:
// instrumentation must not abort optimization.
func emitSnapshot(ctx context.Context, sink Snapshot, coords [][]float64, labels []int, tag string, opts LocalOptions) {
	if err := sink.Emit(ctx, coords, labels, tag); err != nil {
		observability.Optimizer().OnSnapshotError(ctx, tag, err)
		opts.Logger.Warn("snapshot emit failed", "tag", tag, "err", err)
	}
}
