package workspace

import (
	"sync"
	"unicode/utf8"

	"github.com/cuemby/graphstore/internal/kv"
	"github.com/cuemby/graphstore/pkg/config"
	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/events"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/cuemby/graphstore/pkg/log"
	"github.com/cuemby/graphstore/pkg/metrics"
)

// Workspace bundles the three LWW element sets, their metadata, the
// constraints registry and the backing store connection, and
// orchestrates the barrier and sync protocol on top of them. It is an
// explicit value a caller may guard with its own synchronization, or
// drive single-threaded, rather than a process-wide singleton.
// Workspace itself serializes concurrent callers with a coarse mutex:
// every exported method is a brief synchronous sequence culminating in
// at most one backing-store transaction.
type Workspace struct {
	mu sync.Mutex

	store       *kv.Store
	bucket      uint64
	constraints *config.Registry

	nodeMeta *crdt.Metadata
	atomMeta *crdt.Metadata
	edgeMeta *crdt.Metadata

	nodes *crdt.NodeSet
	atoms *crdt.AtomSet
	edges *crdt.EdgeSet

	broker *events.Broker

	open bool
}

// SetEventBroker wires a Broker that Barrier publishes its results to.
// Passing nil disables publishing. Must be called after Open.
func (w *Workspace) SetEventBroker(b *events.Broker) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.broker = b
}

// New returns an unopened Workspace. Call Open before any other
// method.
func New() *Workspace {
	return &Workspace{}
}

// Open opens (creating if absent) the workspace backed by the file at
// path (empty or ":memory:" for an ephemeral store), using constraints
// as the sticky/acyclic label registry. constraints is cloned so later
// mutation of the caller's registry does not affect an already-open
// workspace. Calling Open on a Workspace that is already open returns
// ErrAlreadyOpen: a second Open never silently switches backing stores
// out from under a live workspace.
func Open(path string, constraints *config.Registry) (*Workspace, error) {
	w := New()
	if err := w.Open(path, constraints); err != nil {
		return nil, err
	}
	return w, nil
}

// Open is the method form of the package-level Open constructor; see
// its documentation.
func (w *Workspace) Open(path string, constraints *config.Registry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.open {
		return ErrAlreadyOpen
	}
	if path != "" && !utf8.ValidString(path) {
		return ErrInvalidUTF8
	}
	if constraints == nil {
		constraints = config.NewRegistry()
	}

	store, err := kv.Open(path)
	if err != nil {
		return err
	}

	if err := w.init(store, constraints); err != nil {
		store.Close()
		return err
	}

	log.WithComponent("workspace").Info().
		Uint64("bucket", w.bucket).
		Msg("workspace opened")
	return nil
}

func (w *Workspace) init(store *kv.Store, constraints *config.Registry) error {
	bucket, err := openWorkspaceMeta(store)
	if err != nil {
		return err
	}

	nodeMeta, err := crdt.OpenMetadata(store, "nodes.buckets")
	if err != nil {
		return err
	}
	atomMeta, err := crdt.OpenMetadata(store, "atoms.buckets")
	if err != nil {
		return err
	}
	edgeMeta, err := crdt.OpenMetadata(store, "edges.buckets")
	if err != nil {
		return err
	}

	nodes, err := crdt.OpenNodeSet(store, nodeMeta)
	if err != nil {
		return err
	}
	atoms, err := crdt.OpenAtomSet(store, atomMeta)
	if err != nil {
		return err
	}
	edges, err := crdt.OpenEdgeSet(store, edgeMeta)
	if err != nil {
		return err
	}

	w.store = store
	w.bucket = bucket
	w.constraints = constraints.Clone()
	w.nodeMeta = nodeMeta
	w.atomMeta = atomMeta
	w.edgeMeta = edgeMeta
	w.nodes = nodes
	w.atoms = atoms
	w.edges = edges
	w.open = true
	return nil
}

func (w *Workspace) checkOpen() error {
	if !w.open {
		return ErrUninitialised
	}
	return nil
}

// Commit ends the current backing-store transaction and begins a new
// one, so the workspace remains "in a transaction" throughout its
// open lifetime.
func (w *Workspace) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.store.Commit(); err != nil {
		return err
	}
	metrics.CommitsTotal.Inc()
	return nil
}

// Close commits the current transaction and releases the backing
// store. A closed Workspace rejects all further data operations with
// ErrUninitialised.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return nil
	}
	w.open = false
	return w.store.Close()
}

// Node returns the label of id, or nil if id is not a node.
func (w *Workspace) Node(id gid.ID) (*crdt.NodeValue, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.nodes.Get(id)
}

// NodeIDByLabel returns every node id currently carrying label.
func (w *Workspace) NodeIDByLabel(label gid.Label) ([]gid.ID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.nodes.IDsByLabel(label)
}

// Atom returns the (src, label, value) triple of id, or nil.
func (w *Workspace) Atom(id gid.ID) (*crdt.AtomValue, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.atoms.Get(id)
}

// AtomIDLabelValueBySrc returns (id, label, value) for every atom
// whose src is src.
func (w *Workspace) AtomIDLabelValueBySrc(src gid.ID) ([]crdt.AtomRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.atoms.BySrc(src)
}

// AtomIDValueBySrcLabel returns (id, value) for every atom whose src
// is src and label is label.
func (w *Workspace) AtomIDValueBySrcLabel(src gid.ID, label gid.Label) ([]crdt.AtomRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.atoms.BySrcLabel(src, label)
}

// AtomIDSrcValueByLabel returns (id, src, value) for every atom whose
// label is label.
func (w *Workspace) AtomIDSrcValueByLabel(label gid.Label) ([]crdt.AtomRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.atoms.ByLabel(label)
}

// AtomIDSrcByLabelValue returns (id, src) for every atom whose label
// is label and value is value.
func (w *Workspace) AtomIDSrcByLabelValue(label gid.Label, value []byte) ([]crdt.AtomRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.atoms.ByLabelValue(label, value)
}

// Edge returns the (src, label, dst) triple of id, or nil.
func (w *Workspace) Edge(id gid.ID) (*crdt.EdgeValue, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.edges.Get(id)
}

// EdgeIDLabelDstBySrc returns (id, label, dst) for every edge whose
// src is src.
func (w *Workspace) EdgeIDLabelDstBySrc(src gid.ID) ([]crdt.EdgeRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.edges.BySrc(src)
}

// EdgeIDDstBySrcLabel returns (id, dst) for every edge whose src is
// src and label is label.
func (w *Workspace) EdgeIDDstBySrcLabel(src gid.ID, label gid.Label) ([]crdt.EdgeRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.edges.BySrcLabel(src, label)
}

// EdgeIDSrcLabelByDst returns (id, src, label) for every edge whose
// dst is dst.
func (w *Workspace) EdgeIDSrcLabelByDst(dst gid.ID) ([]crdt.EdgeRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.edges.ByDst(dst)
}

// EdgeIDSrcByDstLabel returns (id, src) for every edge whose dst is
// dst and label is label.
func (w *Workspace) EdgeIDSrcByDstLabel(dst gid.ID, label gid.Label) ([]crdt.EdgeRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return w.edges.ByDstLabel(dst, label)
}

// SetNode writes id's label (nil deletes it), stamped with this
// workspace's bucket and a freshly issued clock.
func (w *Workspace) SetNode(id gid.ID, label *gid.Label) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return false, err
	}
	var value *crdt.NodeValue
	if label != nil {
		value = &crdt.NodeValue{Label: *label}
	}
	clock := w.nodeMeta.Next()
	applied, err := w.nodes.Set(id, w.bucket, clock, value)
	if err == nil {
		metrics.SetOpsTotal.WithLabelValues("node", boolLabel(applied)).Inc()
	}
	return applied, err
}

// SetAtom writes id's (src, label, value) triple (nil deletes it).
func (w *Workspace) SetAtom(id gid.ID, value *crdt.AtomValue) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return false, err
	}
	clock := w.atomMeta.Next()
	applied, err := w.atoms.Set(id, w.bucket, clock, value)
	if err == nil {
		metrics.SetOpsTotal.WithLabelValues("atom", boolLabel(applied)).Inc()
	}
	return applied, err
}

// SetEdge writes id's (src, label, dst) triple (nil deletes it).
func (w *Workspace) SetEdge(id gid.ID, value *crdt.EdgeValue) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return false, err
	}
	clock := w.edgeMeta.Next()
	applied, err := w.edges.Set(id, w.bucket, clock, value)
	if err == nil {
		metrics.SetOpsTotal.WithLabelValues("edge", boolLabel(applied)).Inc()
	}
	return applied, err
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Bucket returns this workspace's replica identifier.
func (w *Workspace) Bucket() uint64 {
	return w.bucket
}

// Stats is a point-in-time entity-count snapshot, cheap enough to poll
// periodically for metrics export.
type Stats struct {
	Nodes int
	Atoms int
	Edges int
}

// Stats counts the live entries in each of the three sets. It reflects
// the store as of the last Save (i.e. the last Barrier), not any
// not-yet-committed pending writes.
func (w *Workspace) Stats() (Stats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return Stats{}, err
	}

	nodes, err := w.nodes.Count()
	if err != nil {
		return Stats{}, err
	}
	atoms, err := w.atoms.Count()
	if err != nil {
		return Stats{}, err
	}
	edges, err := w.edges.Count()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Nodes: nodes, Atoms: atoms, Edges: edges}, nil
}
