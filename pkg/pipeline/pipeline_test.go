package pipeline

import (
	"context"
	"testing"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/graph"
)

func testInputs() ([][]float64, *graph.Graph, [][]float64) {
	coords := [][]float64{
		{0, 0},
		{1, 0},
		{1, 1},
		{0, 1},
	}
	g := &graph.Graph{
		Head:            []int{0, 1, 2, 3},
		Tail:            []int{1, 2, 3, 0},
		EpochsPerSample: []float64{1, 1, 1, 1},
		Hubs:            []int{1, 1, 1, 1},
	}
	p := [][]float64{
		{0, 0.5, 0.1, 0.5},
		{0.5, 0, 0.5, 0.1},
		{0.1, 0.5, 0, 0.5},
		{0.5, 0.1, 0.5, 0},
	}
	return coords, g, p
}

func TestExecuteFullPipeline(t *testing.T) {
	coords, g, p := testInputs()
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Coords:      coords,
		Graph:       g,
		P:           p,
		NEpochs:     10,
		MaxIter:     5,
		ComputeCost: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Embedding) != 4 || len(result.Embedding[0]) != 2 {
		t.Fatalf("embedding shape %dx%d, want 4x2", len(result.Embedding), len(result.Embedding[0]))
	}
	if len(result.Costs) != 5 {
		t.Errorf("got %d costs, want 5", len(result.Costs))
	}
	if result.EmbeddingHash == "" {
		t.Error("embedding hash not computed")
	}
	if result.Stats.Points != 4 || result.Stats.EdgeCount != 4 {
		t.Errorf("stats: %+v", result.Stats)
	}
	if result.CacheInfo.LocalHit || result.CacheInfo.GlobalHit {
		t.Error("null cache should never hit")
	}

	// Input coordinates must not be mutated.
	if coords[0][0] != 0 || coords[1][0] != 1 {
		t.Error("Execute mutated the input coordinates")
	}
}

func TestExecuteSkipsGlobalWithoutSimilarity(t *testing.T) {
	coords, g, _ := testInputs()
	runner := NewRunner(nil, nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		Coords:  coords,
		Graph:   g,
		NEpochs: 5,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Costs != nil {
		t.Error("global stage should be skipped without P")
	}
	if result.Stats.GlobalTime != 0 {
		t.Error("global stage should not have run")
	}
}

func TestExecuteUsesCache(t *testing.T) {
	coords, g, p := testInputs()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Coords: coords, Graph: g, P: p, NEpochs: 10, MaxIter: 3}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LocalHit || first.CacheInfo.GlobalHit {
		t.Error("first run should miss the cache")
	}

	second, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, P: p, NEpochs: 10, MaxIter: 3})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LocalHit || !second.CacheInfo.GlobalHit {
		t.Errorf("second run should hit both stages: %+v", second.CacheInfo)
	}
	if second.EmbeddingHash != first.EmbeddingHash {
		t.Error("cached embedding differs from computed embedding")
	}

	// Refresh bypasses the cache.
	third, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, P: p, NEpochs: 10, MaxIter: 3, Refresh: true})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.LocalHit || third.CacheInfo.GlobalHit {
		t.Error("refresh run should not hit the cache")
	}
	if third.EmbeddingHash != first.EmbeddingHash {
		t.Error("recomputed embedding should be bit-identical with equal seeds")
	}
}

func TestExecuteCostRequestMissesCostlessEntry(t *testing.T) {
	coords, g, p := testInputs()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	// Seed the cache with a cost-free global product.
	first, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, P: p, NEpochs: 10, MaxIter: 3})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if len(first.Costs) != 0 {
		t.Fatalf("cost-free run returned %d costs", len(first.Costs))
	}

	// Requesting costs must not be served the cost-free entry.
	second, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, P: p, NEpochs: 10, MaxIter: 3, ComputeCost: true})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if second.CacheInfo.GlobalHit {
		t.Error("cost-requesting run hit the cost-free cache entry")
	}
	if len(second.Costs) != 3 {
		t.Errorf("got %d costs, want 3", len(second.Costs))
	}
	if second.EmbeddingHash != first.EmbeddingHash {
		t.Error("cost computation changed the embedding")
	}
}

func TestExecuteOptionChangesMissCache(t *testing.T) {
	coords, g, _ := testInputs()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, NEpochs: 10}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// A different seed is a different product.
	result, err := runner.Execute(context.Background(), Options{Coords: coords, Graph: g, NEpochs: 10, Seed: 7})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.LocalHit {
		t.Error("changed seed should miss the cache")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	coords, g, _ := testInputs()

	t.Run("defaults applied", func(t *testing.T) {
		opts := Options{Coords: coords, Graph: g}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("ValidateAndSetDefaults: %v", err)
		}
		if opts.NEpochs != DefaultNEpochs {
			t.Errorf("NEpochs = %d, want %d", opts.NEpochs, DefaultNEpochs)
		}
		if opts.Curve.A != DefaultCurveA || opts.Curve.B != DefaultCurveB {
			t.Errorf("curve = %+v", opts.Curve)
		}
		if opts.Logger == nil {
			t.Error("logger default not applied")
		}
	})

	t.Run("missing coords", func(t *testing.T) {
		opts := Options{Graph: g}
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("got %v, want INVALID_INPUT", err)
		}
	})

	t.Run("missing graph", func(t *testing.T) {
		opts := Options{Coords: coords}
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("got %v, want INVALID_INPUT", err)
		}
	})

	t.Run("negative epochs", func(t *testing.T) {
		opts := Options{Coords: coords, Graph: g, NEpochs: -1}
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("got %v, want INVALID_CONFIG", err)
		}
	})
}

func TestKeyOptsDistinguishStages(t *testing.T) {
	coords, g, p := testInputs()
	opts := Options{Coords: coords, Graph: g, P: p}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	local := opts.LocalKeyOpts()
	global := opts.GlobalKeyOpts()
	if local == global {
		t.Error("local and global stages must produce distinct key options")
	}
	if local.MaxIter != 0 {
		t.Error("local key options must not depend on global parameters")
	}
}
