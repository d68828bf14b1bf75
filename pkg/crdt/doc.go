/*
Package crdt implements the three last-writer-wins element sets at the
heart of the graph engine — nodes, atoms and edges — plus the
per-structure clock metadata each set's LWW ordering depends on.

Each set stores one entity kind, keyed by a 128-bit gid.ID, and
exposes the same shared contract: a point lookup, a handful of
secondary lookups, an LWW Set, an Actions enumeration for sync, and a
Mods enumeration for the barrier. All three sets buffer their
modifications in memory until Save is called — this is required so
the acyclic-edge cycle check in pkg/workspace can see uncommitted
writes when it walks the graph.
*/
package crdt
