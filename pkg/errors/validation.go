package errors

import (
	"strings"
	"unicode"
)

// ValidateEdgeLists checks that the head, tail, and weight slices of an edge
// list have matching lengths and that every index addresses a valid row.
//
// headRows and tailRows are the row counts of the coordinate matrices the
// indices point into. All violations are precondition errors and must be
// reported before any coordinate is mutated.
func ValidateEdgeLists(head, tail []int, weights []float64, headRows, tailRows int) error {
	if len(head) != len(tail) {
		return New(ErrCodeInvalidShape, "head has %d edges, tail has %d", len(head), len(tail))
	}
	if len(weights) != len(head) {
		return New(ErrCodeInvalidShape, "epochs-per-sample has %d entries, edge list has %d", len(weights), len(head))
	}
	for i, h := range head {
		if h < 0 || h >= headRows {
			return New(ErrCodeInvalidGraph, "edge %d: head index %d out of range [0, %d)", i, h, headRows)
		}
	}
	for i, k := range tail {
		if k < 0 || k >= tailRows {
			return New(ErrCodeInvalidGraph, "edge %d: tail index %d out of range [0, %d)", i, k, tailRows)
		}
	}
	for i, w := range weights {
		if w <= 0 {
			return New(ErrCodeInvalidGraph, "edge %d: epochs-per-sample %v must be positive", i, w)
		}
	}
	return nil
}

// ValidateHubInfo checks the hub label vector: one label per tail vertex,
// labels non-negative, and at least one vertex hub-eligible (label > 0).
// Without an eligible vertex, negative sampling has no valid draw.
func ValidateHubInfo(hubs []int, tailRows int) error {
	if len(hubs) != tailRows {
		return New(ErrCodeInvalidShape, "hub info has %d labels, tail embedding has %d rows", len(hubs), tailRows)
	}
	eligible := false
	for i, h := range hubs {
		if h < 0 {
			return New(ErrCodeInvalidGraph, "vertex %d: hub label %d must be non-negative", i, h)
		}
		if h > 0 {
			eligible = true
		}
	}
	if !eligible {
		return New(ErrCodeNoHubVertex, "no vertex with hub label > 0; negative sampling cannot proceed")
	}
	return nil
}

// ValidateSquare checks that m is a square n×n matrix.
func ValidateSquare(m [][]float64, n int) error {
	if len(m) != n {
		return New(ErrCodeInvalidShape, "matrix has %d rows, want %d", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return New(ErrCodeInvalidShape, "matrix row %d has %d columns, want %d", i, len(row), n)
		}
	}
	return nil
}

// ValidateRunID validates a run identifier for safety before it is used in
// file paths or database lookups.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "run id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "run id contains control characters")
		}
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "run id contains path characters")
	}
	return nil
}
