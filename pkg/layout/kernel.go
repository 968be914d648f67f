package layout

import (
	"math"

	"github.com/HunRotation/umato/pkg/matrix"
)

const (
	// clipBound caps every per-dimension displacement before scaling.
	// This is the only safeguard against exploding gradients; there is no
	// adaptive step-size logic.
	clipBound = 10.0

	// negGradScale damps repulsive displacements.
	negGradScale = 0.001

	// Attractive pull per endpoint, selected by the tail vertex's hub label.
	primaryPull   = 0.01  // label 1 and 2, head side; label 1, tail side
	secondaryPull = 0.001 // label 2, tail side
)

// localState bundles the mutable state of one local-optimizer run.
//
// Per-edge counters (nextSample, nextNeg) are owned by their edge and never
// shared, so edges can be processed concurrently within an epoch. The
// coordinate rows and the RNG stream are the only cross-edge state.
type localState struct {
	headEmb [][]float64
	tailEmb [][]float64

	head []int
	tail []int
	hubs []int

	eps        []float64 // epochs-per-sample, read-only
	epns       []float64 // epochs per negative sample; nil disables negatives
	nextSample []float64 // next epoch at which edge i fires
	nextNeg    []float64 // next epoch at which edge i draws negatives

	eligible []int // vertex indices with hub label > 0

	dim       int
	moveOther bool
	curve     Curve
	gamma     float64
}

// updateEdge applies edge i's attractive and repulsive updates for epoch n.
//
// The function is a pure transition over the edge's slice of mutable state
// plus the given RNG stream, which makes it usable both from the sequential
// loop and from per-worker goroutines with forked streams.
func (s *localState) updateEdge(i, n int, alpha float64, rng *RandState) {
	if s.nextSample[i] > float64(n) {
		return
	}

	j := s.head[i]
	k := s.tail[i]
	current := s.headEmb[j]
	other := s.tailEmb[k]

	// Attractive step along the edge.
	d2 := matrix.SqDist(current, other)
	var coeff float64
	if d2 > 0 {
		coeff = -2.0 * s.curve.A * s.curve.B * math.Pow(d2, s.curve.B-1.0)
		coeff /= s.curve.A*math.Pow(d2, s.curve.B) + 1.0
	}

	var pullCurrent, pullOther float64
	switch s.hubs[k] {
	case 1:
		pullCurrent, pullOther = primaryPull, primaryPull
	case 2:
		pullCurrent, pullOther = primaryPull, secondaryPull
	}

	for d := 0; d < s.dim; d++ {
		g := matrix.Clip(coeff*(current[d]-other[d]), clipBound)
		current[d] += g * alpha * pullCurrent
		if s.moveOther {
			other[d] -= g * alpha * pullOther
		}
	}

	s.nextSample[i] += s.eps[i]

	if s.epns == nil {
		return
	}

	// Repulsive step: draw hub-eligible vertices and push the head away.
	nNeg := int((float64(n) - s.nextNeg[i]) / s.epns[i])
	for p := 0; p < nNeg; p++ {
		k := s.eligible[rng.Intn(len(s.eligible))]
		other := s.tailEmb[k]

		d2 := matrix.SqDist(current, other)
		var coeff float64
		if d2 > 0 {
			coeff = 2.0 * s.gamma * s.curve.B
			coeff /= (0.001 + d2) * (s.curve.A*math.Pow(d2, s.curve.B) + 1)
		} else if j == k {
			// Self-sample at zero distance: the draw is consumed but no
			// update is applied.
			continue
		}

		for d := 0; d < s.dim; d++ {
			var g float64
			if coeff > 0 {
				g = matrix.Clip(coeff*(current[d]-other[d]), clipBound)
			} else {
				// Coincident non-self points get a flat kick apart.
				g = clipBound
			}
			current[d] += g * alpha * negGradScale
		}
	}

	s.nextNeg[i] += float64(nNeg) * s.epns[i]
}
