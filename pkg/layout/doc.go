// Package layout implements the two-stage embedding optimizer.
//
// The optimizer positions points in a low-dimensional space in two passes
// that run in sequence on a shared coordinate matrix:
//
//  1. Local: stochastic per-edge gradient descent over a weighted
//     nearest-neighbor graph. Edges pull their endpoints together
//     (attraction, modulated by the tail vertex's hub label) while randomly
//     sampled hub vertices push the head away (negative sampling).
//     See [OptimizeLocal].
//  2. Global: dense full-pairwise gradient descent that aligns the
//     embedding's distance structure with a target similarity matrix.
//     See [OptimizeGlobal].
//
// Data flows one way: inputs → local → intermediate coordinates → global →
// final coordinates. The global pass does not depend on the local pass
// beyond receiving its output coordinates.
//
// # Determinism
//
// All randomness comes from a single [RandState] stream. With Workers <= 1
// two runs over identical inputs and an identical initial state produce
// bit-identical coordinates. With Workers > 1 edges are processed by
// concurrent workers, each drawing from its own derived substream;
// coordinate writes are unsynchronized (hogwild-style) and results are no
// longer reproducible against the sequential schedule.
//
// # Usage
//
//	st := layout.NewRandState(42)
//	emb, err := layout.OptimizeLocal(ctx, emb, emb, g, layout.Curve{A: 1.577, B: 0.895},
//	    layout.LocalOptions{NEpochs: 200, RandState: st})
//	if err != nil {
//	    return err
//	}
//	emb, costs, err := layout.OptimizeGlobal(ctx, p, emb, layout.Curve{A: 1.577, B: 0.895},
//	    layout.GlobalOptions{MaxIter: 10, Alpha: 0.01})
package layout
