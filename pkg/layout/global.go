package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/matrix"
	"github.com/HunRotation/umato/pkg/observability"
)

// OptimizeGlobal runs the global refinement pass: MaxIter full-gradient
// iterations pulling the pairwise distances of Z toward the similarity
// matrix P. Z is mutated in place and returned.
//
// P must be a square matrix matching Z's row count; entries are expected in
// [0, 1] with a zero diagonal. When opts.ComputeCost is set the returned
// slice holds one DTM divergence value per iteration, otherwise it is nil.
func OptimizeGlobal(ctx context.Context, P [][]float64, Z [][]float64, curve Curve, opts GlobalOptions) ([][]float64, []float64, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, nil, err
	}

	n, dim := matrix.Dims(Z)
	if n == 0 || dim == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidShape, "embedding is empty")
	}
	if err := matrix.CheckRect(Z, dim); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidShape, err, "embedding")
	}
	if err := errors.ValidateSquare(P, n); err != nil {
		return nil, nil, err
	}

	var costs []float64
	if opts.ComputeCost {
		costs = make([]float64, 0, opts.MaxIter)
	}

	dZ := matrix.New(n, dim)
	Q := matrix.New(n, n)

	for iter := 0; iter < opts.MaxIter; iter++ {
		d2 := matrix.PairwiseSqDist(Z)

		// Q is the row-normalized product (1-P) · (0.001 + D²)⁻¹ with a
		// zeroed diagonal in the inverse-distance factor. The matrix product
		// (not an elementwise one) spreads each row's dissimilarity mass
		// over the inverse distances of all other points.
		for i := 0; i < n; i++ {
			var rowSum float64
			for j := 0; j < n; j++ {
				var acc float64
				for k := 0; k < n; k++ {
					if k == j {
						continue
					}
					acc += (1.0 - P[i][k]) / (0.001 + d2[k][j])
				}
				Q[i][j] = acc
				rowSum += acc
			}
			for j := 0; j < n; j++ {
				Q[i][j] /= rowSum
			}
		}

		// Gradient step. The diagonal contributes nothing because the
		// coordinate difference of a point with itself is zero.
		for i := 0; i < n; i++ {
			row := dZ[i]
			for d := 0; d < dim; d++ {
				row[d] = 0
			}
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				grad := 2.0*curve.A*curve.B*P[i][j]*math.Pow(1e-12+d2[i][j], curve.B-1.0) - 2.0*curve.B*Q[i][j]
				dInv := 1.0 / (1.0 + curve.A*math.Pow(d2[i][j], curve.B))
				scale := grad * dInv
				for d := 0; d < dim; d++ {
					row[d] += scale * (Z[i][d] - Z[j][d])
				}
			}
		}
		for i := 0; i < n; i++ {
			for d := 0; d < dim; d++ {
				Z[i][d] -= opts.Alpha * dZ[i][d]
			}
		}

		cost := math.NaN()
		if opts.ComputeCost {
			cost = DTMDivergence(P, Q, opts.Sigma)
			costs = append(costs, cost)
			opts.Logger.Debug("global iteration complete", "iter", iter+1, "total", opts.MaxIter, "cost", cost)
		} else {
			opts.Logger.Debug("global iteration complete", "iter", iter+1, "total", opts.MaxIter)
		}
		observability.Optimizer().OnGlobalIteration(ctx, iter+1, opts.MaxIter, cost)

		if opts.Snapshot != nil && (iter+1)%opts.SnapshotEvery == 0 {
			emitGlobalSnapshot(ctx, Z, fmt.Sprintf("global-%d", iter+1), opts)
		}
	}

	if opts.Snapshot != nil && opts.MaxIter > 0 {
		emitGlobalSnapshot(ctx, Z, "global-final", opts)
	}

	return Z, costs, nil
}

// DTMDivergence measures how differently two adjacency-like matrices
// distribute density mass. Each matrix is reduced to a normalized density
// vector with a Gaussian kernel of bandwidth sigma, and the divergence is
// the L1 distance between the two vectors.
func DTMDivergence(adjX, adjZ [][]float64, sigma float64) float64 {
	dx := dtmDensity(adjX, sigma)
	dz := dtmDensity(adjZ, sigma)
	var sum float64
	for i := range dx {
		sum += math.Abs(dx[i] - dz[i])
	}
	return sum
}

func dtmDensity(adj [][]float64, sigma float64) []float64 {
	density := make([]float64, len(adj))
	var total float64
	for i, row := range adj {
		var s float64
		for _, v := range row {
			s += math.Exp(-(v * v) / sigma)
		}
		density[i] = s
		total += s
	}
	for i := range density {
		density[i] /= total
	}
	return density
}

func emitGlobalSnapshot(ctx context.Context, coords [][]float64, tag string, opts GlobalOptions) {
	if err := opts.Snapshot.Emit(ctx, coords, opts.Labels, tag); err != nil {
		observability.Optimizer().OnSnapshotError(ctx, tag, err)
		opts.Logger.Warn("snapshot emit failed", "tag", tag, "err", err)
	}
}
