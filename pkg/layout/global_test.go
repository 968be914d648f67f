package layout

import (
	"context"
	"math"
	"testing"

	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/matrix"
)

func TestOptimizeGlobalZeroIterationsIsIdentity(t *testing.T) {
	Z := [][]float64{{0, 0}, {1, 0}}
	P := [][]float64{{0, 0.5}, {0.5, 0}}
	want := matrix.Clone(Z)

	got, costs, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1, B: 1}, GlobalOptions{MaxIter: 0})
	if err != nil {
		t.Fatalf("OptimizeGlobal: %v", err)
	}
	if costs != nil {
		t.Errorf("costs should be nil without ComputeCost, got %v", costs)
	}
	for i := range want {
		for d := range want[i] {
			if got[i][d] != want[i][d] {
				t.Fatalf("point %d dim %d moved with zero iterations", i, d)
			}
		}
	}
}

func TestOptimizeGlobalSingleStepTwoPoints(t *testing.T) {
	// Hand-computed single iteration with a=b=1 and two points at unit
	// distance. Q row-normalizes to 2/3 off-diagonal, so the gradient is
	// 2·0.5 - 2·(2/3) = -1/3, the kernel inverse is 1/2, and each point
	// steps alpha/6 = 0.1 away from the other along x.
	P := [][]float64{{0, 0.5}, {0.5, 0}}
	Z := [][]float64{{0, 0}, {1, 0}}

	got, _, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1, B: 1}, GlobalOptions{
		MaxIter: 1,
		Alpha:   0.6,
	})
	if err != nil {
		t.Fatalf("OptimizeGlobal: %v", err)
	}

	want := [][]float64{{-0.1, 0}, {1.1, 0}}
	for i := range want {
		for d := range want[i] {
			if diff := math.Abs(got[i][d] - want[i][d]); diff > 1e-9 {
				t.Errorf("point %d dim %d: got %v, want %v", i, d, got[i][d], want[i][d])
			}
		}
	}
}

func TestOptimizeGlobalDissimilarPointsRepelMonotonically(t *testing.T) {
	// With zero similarity everywhere the update is purely repulsive, so the
	// pairwise distance must grow at every iteration.
	P := [][]float64{{0, 0}, {0, 0}}
	Z := [][]float64{{0, 0}, {0.5, 0}}

	prev := matrix.SqDist(Z[0], Z[1])
	for iter := 0; iter < 10; iter++ {
		_, _, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1, B: 1}, GlobalOptions{MaxIter: 1})
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}
		cur := matrix.SqDist(Z[0], Z[1])
		if cur <= prev {
			t.Fatalf("iteration %d: distance did not grow: %v -> %v", iter, prev, cur)
		}
		prev = cur
	}
}

func TestOptimizeGlobalCosts(t *testing.T) {
	P := [][]float64{
		{0, 0.8, 0.1},
		{0.8, 0, 0.2},
		{0.1, 0.2, 0},
	}
	Z := [][]float64{{0, 0}, {0.3, 0.1}, {2, 2}}

	_, costs, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1.577, B: 0.895}, GlobalOptions{
		MaxIter:     7,
		ComputeCost: true,
	})
	if err != nil {
		t.Fatalf("OptimizeGlobal: %v", err)
	}
	if len(costs) != 7 {
		t.Fatalf("got %d costs, want 7", len(costs))
	}
	for i, c := range costs {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			t.Errorf("cost %d out of range: %v", i, c)
		}
	}
}

func TestOptimizeGlobalValidation(t *testing.T) {
	ctx := context.Background()
	curve := Curve{A: 1, B: 1}

	tests := []struct {
		name string
		fn   func() error
		code errors.Code
	}{
		{
			name: "negative max iter",
			code: errors.ErrCodeInvalidConfig,
			fn: func() error {
				_, _, err := OptimizeGlobal(ctx, [][]float64{{0}}, [][]float64{{0, 0}}, curve, GlobalOptions{MaxIter: -1})
				return err
			},
		},
		{
			name: "empty embedding",
			code: errors.ErrCodeInvalidShape,
			fn: func() error {
				_, _, err := OptimizeGlobal(ctx, nil, nil, curve, GlobalOptions{MaxIter: 1})
				return err
			},
		},
		{
			name: "similarity matrix wrong size",
			code: errors.ErrCodeInvalidShape,
			fn: func() error {
				P := [][]float64{{0}}
				Z := [][]float64{{0, 0}, {1, 0}}
				_, _, err := OptimizeGlobal(ctx, P, Z, curve, GlobalOptions{MaxIter: 1})
				return err
			},
		},
		{
			name: "similarity matrix not square",
			code: errors.ErrCodeInvalidShape,
			fn: func() error {
				P := [][]float64{{0, 0.5}, {0.5}}
				Z := [][]float64{{0, 0}, {1, 0}}
				_, _, err := OptimizeGlobal(ctx, P, Z, curve, GlobalOptions{MaxIter: 1})
				return err
			},
		},
		{
			name: "ragged embedding",
			code: errors.ErrCodeInvalidShape,
			fn: func() error {
				P := [][]float64{{0, 0.5}, {0.5, 0}}
				Z := [][]float64{{0, 0}, {1}}
				_, _, err := OptimizeGlobal(ctx, P, Z, curve, GlobalOptions{MaxIter: 1})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("got code %q, want %q (err: %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestOptimizeGlobalSnapshots(t *testing.T) {
	sink := &recordingSink{}
	P := [][]float64{{0, 0.5}, {0.5, 0}}
	Z := [][]float64{{0, 0}, {1, 0}}

	_, _, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1, B: 1}, GlobalOptions{
		MaxIter:       8,
		Snapshot:      sink,
		SnapshotEvery: 4,
	})
	if err != nil {
		t.Fatalf("OptimizeGlobal: %v", err)
	}

	want := []string{"global-4", "global-8", "global-final"}
	if len(sink.tags) != len(want) {
		t.Fatalf("got snapshots %v, want %v", sink.tags, want)
	}
	for i, tag := range want {
		if sink.tags[i] != tag {
			t.Errorf("snapshot %d: got tag %q, want %q", i, sink.tags[i], tag)
		}
	}
}

func TestOptimizeGlobalSnapshotFailureIsNonFatal(t *testing.T) {
	P := [][]float64{{0, 0.5}, {0.5, 0}}
	Z := [][]float64{{0, 0}, {1, 0}}
	_, _, err := OptimizeGlobal(context.Background(), P, Z, Curve{A: 1, B: 1}, GlobalOptions{
		MaxIter:       2,
		Snapshot:      &failingSink{},
		SnapshotEvery: 1,
	})
	if err != nil {
		t.Fatalf("snapshot failure aborted the run: %v", err)
	}
}

func TestDTMDivergence(t *testing.T) {
	a := [][]float64{{0, 1}, {1, 0}}
	if got := DTMDivergence(a, a, 0.1); got != 0 {
		t.Errorf("identical matrices: got %v, want 0", got)
	}

	b := [][]float64{{0, 0.2}, {3, 0}}
	got := DTMDivergence(a, b, 0.1)
	if got <= 0 {
		t.Errorf("different matrices: got %v, want > 0", got)
	}
	if got > 2 {
		t.Errorf("divergence of normalized densities cannot exceed 2, got %v", got)
	}
}
