package workspace

import (
	"sort"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/metrics"
	"github.com/cuemby/graphstore/pkg/wire"
)

// SyncVersion produces a mapping structure-name -> serialized
// bucket->clock snapshot: "I have seen up to these clocks". The
// result is a pure byte string suitable for transmission to a peer
// replica.
func (w *Workspace) SyncVersion() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncVersionDuration)

	return wire.EncodeOuter(map[string][]byte{
		wire.StructureNodes: wire.EncodeVersion(w.nodeMeta.Buckets()),
		wire.StructureAtoms: wire.EncodeVersion(w.atomMeta.Buckets()),
		wire.StructureEdges: wire.EncodeVersion(w.edgeMeta.Buckets()),
	}), nil
}

// SyncActions decodes a peer's version and returns every action
// strictly after it, for all three structures.
func (w *Workspace) SyncActions(peerVersion []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncActionsDuration)

	outer, err := wire.DecodeOuter(peerVersion)
	if err != nil {
		return nil, err
	}

	nodeCeiling, err := decodeCeiling(outer[wire.StructureNodes])
	if err != nil {
		return nil, err
	}
	atomCeiling, err := decodeCeiling(outer[wire.StructureAtoms])
	if err != nil {
		return nil, err
	}
	edgeCeiling, err := decodeCeiling(outer[wire.StructureEdges])
	if err != nil {
		return nil, err
	}

	nodeActions, err := w.nodes.Actions(nodeCeiling)
	if err != nil {
		return nil, err
	}
	atomActions, err := w.atoms.Actions(atomCeiling)
	if err != nil {
		return nil, err
	}
	edgeActions, err := w.edges.Actions(edgeCeiling)
	if err != nil {
		return nil, err
	}

	metrics.SyncActionsSent.WithLabelValues("node").Add(float64(len(nodeActions)))
	metrics.SyncActionsSent.WithLabelValues("atom").Add(float64(len(atomActions)))
	metrics.SyncActionsSent.WithLabelValues("edge").Add(float64(len(edgeActions)))

	return wire.EncodeOuter(map[string][]byte{
		wire.StructureNodes: wire.EncodeNodeActions(nodeActions),
		wire.StructureAtoms: wire.EncodeAtomActions(atomActions),
		wire.StructureEdges: wire.EncodeEdgeActions(edgeActions),
	}), nil
}

func decodeCeiling(data []byte) (map[uint64]uint64, error) {
	if data == nil {
		return map[uint64]uint64{}, nil
	}
	return wire.DecodeVersion(data)
}

// SyncJoin decodes a peer's action list and replays each action
// through the corresponding set's LWW Set, after sorting by
// (bucket, clock) ascending within each structure so replay order can
// never violate LWW convergence regardless of the order actions
// arrived on the wire. No barrier runs here: callers must invoke
// Barrier afterward to restore invariants.
func (w *Workspace) SyncJoin(peerActions []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncJoinDuration)

	outer, err := wire.DecodeOuter(peerActions)
	if err != nil {
		return err
	}

	if data, ok := outer[wire.StructureNodes]; ok {
		actions, err := wire.DecodeNodeActions(data)
		if err != nil {
			return err
		}
		sortNodeActions(actions)
		for _, a := range actions {
			if _, err := w.nodes.Set(a.ID, a.Bucket, a.Clock, a.Value); err != nil {
				return err
			}
		}
		metrics.SyncActionsReceived.WithLabelValues("node").Add(float64(len(actions)))
	}

	if data, ok := outer[wire.StructureAtoms]; ok {
		actions, err := wire.DecodeAtomActions(data)
		if err != nil {
			return err
		}
		sortAtomActions(actions)
		for _, a := range actions {
			if _, err := w.atoms.Set(a.ID, a.Bucket, a.Clock, a.Value); err != nil {
				return err
			}
		}
		metrics.SyncActionsReceived.WithLabelValues("atom").Add(float64(len(actions)))
	}

	if data, ok := outer[wire.StructureEdges]; ok {
		actions, err := wire.DecodeEdgeActions(data)
		if err != nil {
			return err
		}
		sortEdgeActions(actions)
		for _, a := range actions {
			if _, err := w.edges.Set(a.ID, a.Bucket, a.Clock, a.Value); err != nil {
				return err
			}
		}
		metrics.SyncActionsReceived.WithLabelValues("edge").Add(float64(len(actions)))
	}

	return nil
}

func sortNodeActions(a []crdt.NodeAction) {
	sort.Slice(a, func(i, j int) bool { return lessBucketClock(a[i], a[j]) })
}

func sortAtomActions(a []crdt.AtomAction) {
	sort.Slice(a, func(i, j int) bool {
		if a[i].Bucket != a[j].Bucket {
			return a[i].Bucket < a[j].Bucket
		}
		return a[i].Clock < a[j].Clock
	})
}

func sortEdgeActions(a []crdt.EdgeAction) {
	sort.Slice(a, func(i, j int) bool {
		if a[i].Bucket != a[j].Bucket {
			return a[i].Bucket < a[j].Bucket
		}
		return a[i].Clock < a[j].Clock
	})
}

func lessBucketClock(a, b crdt.NodeAction) bool {
	if a.Bucket != b.Bucket {
		return a.Bucket < b.Bucket
	}
	return a.Clock < b.Clock
}
