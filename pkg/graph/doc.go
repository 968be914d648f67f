// Package graph defines the sparse weighted neighbor graph consumed by the
// local layout optimizer.
//
// The graph is an edge list: edge i connects Head[i] to Tail[i] and carries
// an epochs-per-sample weight (inverse resampling frequency — lower means
// the edge fires more often). Each tail-space vertex additionally carries a
// hub label:
//
//	0 — non-hub, excluded from negative sampling, no attractive pull
//	1 — primary hub, full attraction and repulsion
//	2 — secondary hub, full pull on the head, weaker pull on the tail
//
// How the graph and the labels are constructed is upstream of this module;
// this package only holds the data, enforces its invariants, and provides
// serialization and DOT export for inspection.
package graph
