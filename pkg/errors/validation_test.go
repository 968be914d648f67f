package errors

import "testing"

func TestValidateEdgeLists(t *testing.T) {
	head := []int{0, 1, 2}
	tail := []int{1, 2, 3}
	eps := []float64{1, 1, 1}

	if err := ValidateEdgeLists(head, tail, eps, 4, 4); err != nil {
		t.Errorf("valid edge lists should pass: %v", err)
	}

	// Mismatched lengths
	if err := ValidateEdgeLists(head, tail[:2], eps, 4, 4); !Is(err, ErrCodeInvalidShape) {
		t.Errorf("short tail should be INVALID_SHAPE, got %v", err)
	}
	if err := ValidateEdgeLists(head, tail, eps[:2], 4, 4); !Is(err, ErrCodeInvalidShape) {
		t.Errorf("short weights should be INVALID_SHAPE, got %v", err)
	}

	// Out-of-range indices
	if err := ValidateEdgeLists([]int{5}, []int{0}, []float64{1}, 4, 4); !Is(err, ErrCodeInvalidGraph) {
		t.Errorf("head out of range should be INVALID_GRAPH, got %v", err)
	}
	if err := ValidateEdgeLists([]int{0}, []int{-1}, []float64{1}, 4, 4); !Is(err, ErrCodeInvalidGraph) {
		t.Errorf("negative tail should be INVALID_GRAPH, got %v", err)
	}

	// Non-positive sampling weight
	if err := ValidateEdgeLists([]int{0}, []int{1}, []float64{0}, 4, 4); !Is(err, ErrCodeInvalidGraph) {
		t.Errorf("zero epochs-per-sample should be INVALID_GRAPH, got %v", err)
	}
}

func TestValidateHubInfo(t *testing.T) {
	if err := ValidateHubInfo([]int{1, 0, 2}, 3); err != nil {
		t.Errorf("valid hub info should pass: %v", err)
	}
	if err := ValidateHubInfo([]int{1, 0}, 3); !Is(err, ErrCodeInvalidShape) {
		t.Errorf("wrong length should be INVALID_SHAPE, got %v", err)
	}
	if err := ValidateHubInfo([]int{0, 0, 0}, 3); !Is(err, ErrCodeNoHubVertex) {
		t.Errorf("all-zero hubs should be NO_HUB_VERTEX, got %v", err)
	}
	if err := ValidateHubInfo([]int{1, -1, 0}, 3); !Is(err, ErrCodeInvalidGraph) {
		t.Errorf("negative label should be INVALID_GRAPH, got %v", err)
	}
}

func TestValidateSquare(t *testing.T) {
	ok := [][]float64{{0, 1}, {1, 0}}
	if err := ValidateSquare(ok, 2); err != nil {
		t.Errorf("square matrix should pass: %v", err)
	}
	if err := ValidateSquare(ok, 3); !Is(err, ErrCodeInvalidShape) {
		t.Errorf("wrong row count should be INVALID_SHAPE, got %v", err)
	}
	ragged := [][]float64{{0, 1}, {1}}
	if err := ValidateSquare(ragged, 2); !Is(err, ErrCodeInvalidShape) {
		t.Errorf("ragged matrix should be INVALID_SHAPE, got %v", err)
	}
}

func TestValidateRunID(t *testing.T) {
	if err := ValidateRunID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"); err != nil {
		t.Errorf("uuid should pass: %v", err)
	}
	for _, bad := range []string{"", "a/b", "a\\b", "..", "x\x00y"} {
		if err := ValidateRunID(bad); err == nil {
			t.Errorf("ValidateRunID(%q) should fail", bad)
		}
	}
}
