package workspace

import (
	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/events"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/cuemby/graphstore/pkg/log"
	"github.com/cuemby/graphstore/pkg/metrics"
)

// NodeEvent, AtomEvent and EdgeEvent are the three tagged event shapes
// Barrier returns: one per entity written since the last barrier
// (directly or by a cascading deletion), carrying its state before and
// after the whole fixed-point run. Prev and Curr may be equal.
type NodeEvent struct {
	ID   gid.ID
	Prev *crdt.NodeValue
	Curr *crdt.NodeValue
}

type AtomEvent struct {
	ID   gid.ID
	Prev *crdt.AtomValue
	Curr *crdt.AtomValue
}

type EdgeEvent struct {
	ID   gid.ID
	Prev *crdt.EdgeValue
	Curr *crdt.EdgeValue
}

// Events is the return value of Barrier: the net changes across all
// three sets for this run.
type Events struct {
	Nodes []NodeEvent
	Atoms []AtomEvent
	Edges []EdgeEvent
}

func (e Events) Empty() bool {
	return len(e.Nodes) == 0 && len(e.Atoms) == 0 && len(e.Edges) == 0
}

// Barrier runs the write-read fixed point that repairs violations of
// the four structural invariants (atom-implies-node,
// edge-implies-nodes, sticky-or-none, acyclic-or-none), then flushes
// all three sets to the backing store. Barrier never fails on its own
// account: every local contradiction it finds is resolved by
// deletion. It can only fail if a backing-store write during repair
// fails.
func (w *Workspace) Barrier() (Events, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpen(); err != nil {
		return Events{}, err
	}

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.BarrierDuration)
		metrics.BarrierRunsTotal.Inc()
	}()

	nodesToDelete := make(map[gid.ID]struct{})
	atomsToDelete := make(map[gid.ID]struct{})
	edgesToDelete := make(map[gid.ID]struct{})

	nodeMods := w.nodes.Mods()
	atomMods := w.atoms.Mods()
	edgeMods := w.edges.Mods()

	w.scanNodeMods(nodeMods, nodesToDelete)
	if err := w.scanAtomMods(atomMods, nodesToDelete, atomsToDelete); err != nil {
		return Events{}, err
	}
	if err := w.scanEdgeMods(edgeMods, nodesToDelete, edgesToDelete); err != nil {
		return Events{}, err
	}

	if err := w.applyDeletions(nodesToDelete, atomsToDelete, edgesToDelete); err != nil {
		return Events{}, err
	}

	result := Events{
		Nodes: toNodeEvents(w.nodes.Mods()),
		Atoms: toAtomEvents(w.atoms.Mods()),
		Edges: toEdgeEvents(w.edges.Mods()),
	}

	if err := w.nodes.Save(); err != nil {
		return Events{}, err
	}
	if err := w.atoms.Save(); err != nil {
		return Events{}, err
	}
	if err := w.edges.Save(); err != nil {
		return Events{}, err
	}

	metrics.BarrierDeletionsTotal.WithLabelValues("node").Add(float64(len(nodesToDelete)))
	metrics.BarrierDeletionsTotal.WithLabelValues("atom").Add(float64(len(atomsToDelete)))
	metrics.BarrierDeletionsTotal.WithLabelValues("edge").Add(float64(len(edgesToDelete)))

	if !result.Empty() {
		log.WithComponent("workspace").Debug().
			Int("nodes", len(result.Nodes)).
			Int("atoms", len(result.Atoms)).
			Int("edges", len(result.Edges)).
			Msg("barrier repaired state")
		w.publish(result)
	}

	return result, nil
}

// publish fans result out to the wired broker, one Event per changed
// entity. A nil broker is a no-op.
func (w *Workspace) publish(result Events) {
	if w.broker == nil {
		return
	}
	for _, e := range result.Nodes {
		w.broker.Publish(&events.Event{
			ID:   e.ID.String(),
			Type: nodeEventType(e),
		})
	}
	for _, e := range result.Atoms {
		w.broker.Publish(&events.Event{
			ID:   e.ID.String(),
			Type: atomEventType(e),
		})
	}
	for _, e := range result.Edges {
		w.broker.Publish(&events.Event{
			ID:   e.ID.String(),
			Type: edgeEventType(e),
		})
	}
}

func nodeEventType(e NodeEvent) events.EventType {
	switch {
	case e.Prev == nil:
		return events.EventNodeCreated
	case e.Curr == nil:
		return events.EventNodeDeleted
	default:
		return events.EventNodeUpdated
	}
}

func atomEventType(e AtomEvent) events.EventType {
	switch {
	case e.Prev == nil:
		return events.EventAtomCreated
	case e.Curr == nil:
		return events.EventAtomDeleted
	default:
		return events.EventAtomUpdated
	}
}

func edgeEventType(e EdgeEvent) events.EventType {
	switch {
	case e.Prev == nil:
		return events.EventEdgeCreated
	case e.Curr == nil:
		return events.EventEdgeDeleted
	default:
		return events.EventEdgeUpdated
	}
}

// scanNodeMods walks each touched node for the sticky-or-none
// invariant: a sticky node whose label changed or disappeared is
// queued for deletion so its dependents cascade in applyDeletions.
func (w *Workspace) scanNodeMods(mods []crdt.NodeMod, nodesToDelete map[gid.ID]struct{}) {
	for _, m := range mods {
		if m.Prev == nil {
			continue
		}
		if w.constraints.IsStickyNode(m.Prev.Label) && (m.Curr == nil || m.Curr.Label != m.Prev.Label) {
			nodesToDelete[m.ID] = struct{}{}
		}
		if m.Curr == nil {
			nodesToDelete[m.ID] = struct{}{}
		}
	}
}

// scanAtomMods walks each touched atom for the sticky-or-none and
// atom-implies-node invariants.
func (w *Workspace) scanAtomMods(mods []crdt.AtomMod, nodesToDelete, atomsToDelete map[gid.ID]struct{}) error {
	for _, m := range mods {
		if m.Prev != nil && w.constraints.IsStickyAtom(m.Prev.Label) {
			same := m.Curr != nil && m.Curr.Src == m.Prev.Src && m.Curr.Label == m.Prev.Label
			if !same {
				nodesToDelete[m.Prev.Src] = struct{}{}
			}
		}
		if m.Curr != nil {
			srcNode, err := w.nodes.Get(m.Curr.Src)
			if err != nil {
				return err
			}
			if srcNode == nil {
				atomsToDelete[m.ID] = struct{}{}
			}
		}
	}
	return nil
}

// scanEdgeMods walks each touched edge for the sticky-or-none,
// edge-implies-nodes and acyclic-or-none invariants.
func (w *Workspace) scanEdgeMods(mods []crdt.EdgeMod, nodesToDelete, edgesToDelete map[gid.ID]struct{}) error {
	for _, m := range mods {
		if m.Prev != nil {
			sticky := w.constraints.IsStickyEdge(m.Prev.Label)
			if sticky {
				same := m.Curr != nil && m.Curr.Src == m.Prev.Src && m.Curr.Label == m.Prev.Label
				if !same {
					nodesToDelete[m.Prev.Src] = struct{}{}
				}
			}
		}
		if m.Curr == nil {
			continue
		}

		srcNode, err := w.nodes.Get(m.Curr.Src)
		if err != nil {
			return err
		}
		dstNode, err := w.nodes.Get(m.Curr.Dst)
		if err != nil {
			return err
		}

		violatesReference := srcNode == nil || dstNode == nil

		violatesAcyclic := false
		if !violatesReference && w.constraints.IsAcyclicEdge(m.Curr.Label) {
			cyclic, err := w.reachable(m.Curr.Dst, m.Curr.Src, m.Curr.Label, make(map[gid.ID]struct{}))
			if err != nil {
				return err
			}
			violatesAcyclic = cyclic
		}

		if violatesReference || violatesAcyclic {
			edgesToDelete[m.ID] = struct{}{}
			if w.constraints.IsStickyEdge(m.Curr.Label) {
				nodesToDelete[m.Curr.Src] = struct{}{}
			}
		}
	}
	return nil
}

// reachable performs a depth-first search from src to target following
// only edges of label, using w.edges.BySrcLabel (which transparently
// overlays the pending buffer). Implements the cycle check for
// invariant 4.
func (w *Workspace) reachable(src, target gid.ID, label gid.Label, visited map[gid.ID]struct{}) (bool, error) {
	if src == target {
		return true, nil
	}
	if _, seen := visited[src]; seen {
		return false, nil
	}
	visited[src] = struct{}{}

	refs, err := w.edges.BySrcLabel(src, label)
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		ok, err := w.reachable(ref.Dst, target, label, visited)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// applyDeletions performs the cascade: drain atoms, then
// edges, then nodes (whose deletion cascades to their attached atoms
// and edges, possibly growing nodesToDelete via the sticky-edge
// back-cascade).
func (w *Workspace) applyDeletions(nodesToDelete, atomsToDelete, edgesToDelete map[gid.ID]struct{}) error {
	for id := range atomsToDelete {
		if _, err := w.atoms.Set(id, w.bucket, w.atomMeta.Next(), nil); err != nil {
			return err
		}
	}

	for id := range edgesToDelete {
		if _, err := w.edges.Set(id, w.bucket, w.edgeMeta.Next(), nil); err != nil {
			return err
		}
	}

	for len(nodesToDelete) > 0 {
		var id gid.ID
		for k := range nodesToDelete {
			id = k
			break
		}
		delete(nodesToDelete, id)

		if err := w.deleteNodeCascade(id, nodesToDelete); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workspace) deleteNodeCascade(id gid.ID, nodesToDelete map[gid.ID]struct{}) error {
	node, err := w.nodes.Get(id)
	if err != nil {
		return err
	}
	if node != nil {
		if _, err := w.nodes.Set(id, w.bucket, w.nodeMeta.Next(), nil); err != nil {
			return err
		}
	}

	atomRefs, err := w.atoms.BySrc(id)
	if err != nil {
		return err
	}
	for _, ref := range atomRefs {
		if _, err := w.atoms.Set(ref.ID, w.bucket, w.atomMeta.Next(), nil); err != nil {
			return err
		}
	}

	srcEdges, err := w.edges.BySrc(id)
	if err != nil {
		return err
	}
	for _, ref := range srcEdges {
		if _, err := w.edges.Set(ref.ID, w.bucket, w.edgeMeta.Next(), nil); err != nil {
			return err
		}
	}

	dstEdges, err := w.edges.ByDst(id)
	if err != nil {
		return err
	}
	for _, ref := range dstEdges {
		if _, err := w.edges.Set(ref.ID, w.bucket, w.edgeMeta.Next(), nil); err != nil {
			return err
		}
		if w.constraints.IsStickyEdge(ref.Label) {
			nodesToDelete[ref.Src] = struct{}{}
		}
	}

	return nil
}

func toNodeEvents(mods []crdt.NodeMod) []NodeEvent {
	out := make([]NodeEvent, 0, len(mods))
	for _, m := range mods {
		out = append(out, NodeEvent{ID: m.ID, Prev: m.Prev, Curr: m.Curr})
	}
	return out
}

func toAtomEvents(mods []crdt.AtomMod) []AtomEvent {
	out := make([]AtomEvent, 0, len(mods))
	for _, m := range mods {
		out = append(out, AtomEvent{ID: m.ID, Prev: m.Prev, Curr: m.Curr})
	}
	return out
}

func toEdgeEvents(mods []crdt.EdgeMod) []EdgeEvent {
	out := make([]EdgeEvent, 0, len(mods))
	for _, m := range mods {
		out = append(out, EdgeEvent{ID: m.ID, Prev: m.Prev, Curr: m.Curr})
	}
	return out
}
