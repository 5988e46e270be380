// Package graph provides the undirected graph model shared by the sampler,
// the wire-format serializers and the corpus builder.
//
// # Storage
//
// A Graph wraps a gonum simple.UndirectedGraph and adds two things the
// benchmark needs on top of plain topology:
//   - an optional integer label per node (written as the VF3 attribute);
//   - a count of self-loops that were offered and dropped on insert.
//
// Node ids are int64. All iteration helpers (Nodes, Neighbors, Edges) return
// values in ascending order so that encoders never depend on map order.
//
// # Canonical form
//
// Canonical relabels the nodes to 0..n-1 by ascending original id. Two graphs
// that differ only in node naming but share the same sorted id order produce
// byte-identical encodings after canonicalization.
//
// # Thread-Safety
//
// A Graph is not safe for concurrent mutation. Generated graphs are built by a
// single goroutine and treated as read-only afterwards.
package graph
