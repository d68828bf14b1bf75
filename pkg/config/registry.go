package config

import (
	"os"

	"github.com/cuemby/graphstore/pkg/gid"
	"gopkg.in/yaml.v3"
)

// Registry is the set of sticky and acyclic labels a Workspace
// enforces. The zero value is an empty Registry (no constraints).
type Registry struct {
	stickyNode  map[gid.Label]struct{}
	stickyAtom  map[gid.Label]struct{}
	stickyEdge  map[gid.Label]struct{}
	acyclicEdge map[gid.Label]struct{}
}

// NewRegistry returns an empty Registry ready for Add* calls.
func NewRegistry() *Registry {
	return &Registry{
		stickyNode:  make(map[gid.Label]struct{}),
		stickyAtom:  make(map[gid.Label]struct{}),
		stickyEdge:  make(map[gid.Label]struct{}),
		acyclicEdge: make(map[gid.Label]struct{}),
	}
}

// AddStickyNode declares label sticky for nodes.
func (r *Registry) AddStickyNode(label gid.Label) { r.stickyNode[label] = struct{}{} }

// AddStickyAtom declares label sticky for atoms.
func (r *Registry) AddStickyAtom(label gid.Label) { r.stickyAtom[label] = struct{}{} }

// AddStickyEdge declares label sticky for edges.
func (r *Registry) AddStickyEdge(label gid.Label) { r.stickyEdge[label] = struct{}{} }

// AddAcyclicEdge declares label acyclic for edges.
func (r *Registry) AddAcyclicEdge(label gid.Label) { r.acyclicEdge[label] = struct{}{} }

// IsStickyNode reports whether label is sticky for nodes.
func (r *Registry) IsStickyNode(label gid.Label) bool { _, ok := r.stickyNode[label]; return ok }

// IsStickyAtom reports whether label is sticky for atoms.
func (r *Registry) IsStickyAtom(label gid.Label) bool { _, ok := r.stickyAtom[label]; return ok }

// IsStickyEdge reports whether label is sticky for edges.
func (r *Registry) IsStickyEdge(label gid.Label) bool { _, ok := r.stickyEdge[label]; return ok }

// IsAcyclicEdge reports whether label is acyclic for edges.
func (r *Registry) IsAcyclicEdge(label gid.Label) bool { _, ok := r.acyclicEdge[label]; return ok }

// Clone returns a deep copy, so a Workspace can own its own registry
// independent of further mutation of the one passed to Open.
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	for l := range r.stickyNode {
		clone.stickyNode[l] = struct{}{}
	}
	for l := range r.stickyAtom {
		clone.stickyAtom[l] = struct{}{}
	}
	for l := range r.stickyEdge {
		clone.stickyEdge[l] = struct{}{}
	}
	for l := range r.acyclicEdge {
		clone.acyclicEdge[l] = struct{}{}
	}
	return clone
}

// document is the YAML shape loaded by LoadFile, using human-readable
// field names that are hashed into labels with gid.HashLabel. Callers
// that already have raw label integers can skip YAML entirely and use
// the Add* methods directly.
type document struct {
	StickyNodes  []string `yaml:"stickyNodes"`
	StickyAtoms  []string `yaml:"stickyAtoms"`
	StickyEdges  []string `yaml:"stickyEdges"`
	AcyclicEdges []string `yaml:"acyclicEdges"`
}

// LoadFile reads a YAML constraint document from path and returns the
// Registry it describes. Field names are hashed into labels with
// gid.HashLabel, the reference hash for deriving
// labels from human-readable names.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML constraint document from data.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, name := range doc.StickyNodes {
		r.AddStickyNode(gid.HashLabel(name))
	}
	for _, name := range doc.StickyAtoms {
		r.AddStickyAtom(gid.HashLabel(name))
	}
	for _, name := range doc.StickyEdges {
		r.AddStickyEdge(gid.HashLabel(name))
	}
	for _, name := range doc.AcyclicEdges {
		r.AddAcyclicEdge(gid.HashLabel(name))
	}
	return r, nil
}
