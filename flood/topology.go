package flood

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// NodeInfo holds the kind a topology merge observed for one node, so a
// rendered topology can distinguish drones from edge nodes, and the set of
// that node's neighbors.
type NodeInfo struct {
	Kind      core.NodeKind
	Neighbors map[core.NodeId]struct{}
}

// Topology is the adjacency-set view an initiator builds up from merged
// flood responses. Edge insertions are idempotent, and every edge is
// recorded symmetrically: if B is a neighbor of A then A is a neighbor of B
// (spec §4.2, testable property 4).
type Topology struct {
	nodes map[core.NodeId]*NodeInfo
}

// NewTopology creates an empty topology view.
func NewTopology() *Topology {
	return &Topology{nodes: make(map[core.NodeId]*NodeInfo)}
}

// SeedSelf records this node's own kind and its direct neighbors as
// provisional edges, per spec §4.3: "seed the topology with the node's own
// direct neighbors before initiating a flood."
func (t *Topology) SeedSelf(self core.NodeId, kind core.NodeKind, neighbors []core.NodeId) {
	for _, n := range neighbors {
		t.addEdge(self, kind, n, core.KindDrone)
	}
}

// Merge walks trace pairwise and records each adjacent pair as a
// bidirectional edge.
func (t *Topology) Merge(trace core.PathTrace) {
	for i := 0; i+1 < len(trace); i++ {
		a, b := trace[i], trace[i+1]
		t.addEdge(a.Node, a.Kind, b.Node, b.Kind)
	}
}

func (t *Topology) addEdge(a core.NodeId, aKind core.NodeKind, b core.NodeId, bKind core.NodeKind) {
	t.ensure(a, aKind).Neighbors[b] = struct{}{}
	t.ensure(b, bKind).Neighbors[a] = struct{}{}
}

func (t *Topology) ensure(id core.NodeId, kind core.NodeKind) *NodeInfo {
	info, ok := t.nodes[id]
	if !ok {
		info = &NodeInfo{Kind: kind, Neighbors: make(map[core.NodeId]struct{})}
		t.nodes[id] = info
	}
	return info
}

// Neighbors returns the set of node ids adjacent to id in the current view.
func (t *Topology) Neighbors(id core.NodeId) []core.NodeId {
	info, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]core.NodeId, 0, len(info.Neighbors))
	for n := range info.Neighbors {
		out = append(out, n)
	}
	return out
}

// HasEdge reports whether a and b are recorded as adjacent.
func (t *Topology) HasEdge(a, b core.NodeId) bool {
	info, ok := t.nodes[a]
	if !ok {
		return false
	}
	_, ok = info.Neighbors[b]
	return ok
}

// Nodes returns every node id currently present in the view.
func (t *Topology) Nodes() []core.NodeId {
	out := make([]core.NodeId, 0, len(t.nodes))
	for id := range t.nodes {
		out = append(out, id)
	}
	return out
}

// Kind reports the recorded NodeKind for id, if known.
func (t *Topology) Kind(id core.NodeId) (core.NodeKind, bool) {
	info, ok := t.nodes[id]
	if !ok {
		return 0, false
	}
	return info.Kind, true
}
