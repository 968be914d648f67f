package graph

import (
	"github.com/HunRotation/umato/pkg/errors"
)

// Graph is a sparse weighted neighbor graph plus per-vertex hub labels.
//
// Head, Tail, and EpochsPerSample are parallel slices: edge i connects
// vertex Head[i] to vertex Tail[i] and is resampled every EpochsPerSample[i]
// epochs. Hubs holds one label per vertex of the tail index space.
type Graph struct {
	Head            []int     `json:"head" bson:"head"`
	Tail            []int     `json:"tail" bson:"tail"`
	EpochsPerSample []float64 `json:"epochs_per_sample" bson:"epochs_per_sample"`
	Hubs            []int     `json:"hubs" bson:"hubs"`
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Head) }

// VertexCount returns the number of tail-space vertices (the length of the
// hub label vector).
func (g *Graph) VertexCount() int { return len(g.Hubs) }

// Validate checks the graph invariants against the coordinate matrices it
// will be applied to: parallel slice lengths, index ranges, positive
// sampling weights, and at least one hub-eligible vertex. headRows and
// tailRows are the row counts of the head and tail coordinate matrices.
//
// Validation runs before any coordinate is mutated; a failure here is a
// precondition violation, not a recoverable condition.
func (g *Graph) Validate(headRows, tailRows int) error {
	if err := errors.ValidateEdgeLists(g.Head, g.Tail, g.EpochsPerSample, headRows, tailRows); err != nil {
		return err
	}
	return errors.ValidateHubInfo(g.Hubs, tailRows)
}

// HubEligible returns the indices of all vertices with hub label > 0.
// Negative sampling draws uniformly from this list; precomputing it removes
// the liveness risk of rejection sampling against a label-0-only graph.
func (g *Graph) HubEligible() []int {
	var out []int
	for i, h := range g.Hubs {
		if h > 0 {
			out = append(out, i)
		}
	}
	return out
}
