package core

// SourceRoutingHeader names every hop a packet will traverse. Hops[HopIndex]
// must identify the node currently holding the packet; a successful forward
// advances HopIndex by exactly one. HopIndex == len(Hops) means the packet
// has arrived at the last named node.
type SourceRoutingHeader struct {
	Hops     []NodeId
	HopIndex int
}

// CurrentHop returns the node id expected to be holding the packet right now.
func (h SourceRoutingHeader) CurrentHop() (NodeId, bool) {
	if h.HopIndex < 0 || h.HopIndex >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex], true
}

// NextHop returns the node id the packet should move to after an advance.
func (h SourceRoutingHeader) NextHop() (NodeId, bool) {
	next := h.HopIndex + 1
	if next < 0 || next >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[next], true
}

// AtDestination reports whether the header has reached its terminal index.
func (h SourceRoutingHeader) AtDestination() bool {
	return h.HopIndex == len(h.Hops)
}

// Advanced returns a copy of the header with HopIndex incremented by one.
// Hops is never mutated in transit — only HopIndex moves.
func (h SourceRoutingHeader) Advanced() SourceRoutingHeader {
	return SourceRoutingHeader{Hops: h.Hops, HopIndex: h.HopIndex + 1}
}

// PathEntry is one (NodeId, NodeKind) pair recorded while a flood traverses
// the mesh. Adjacent entries in a PathTrace denote a directly connected pair.
type PathEntry struct {
	Node NodeId
	Kind NodeKind
}

// PathTrace is the ordered sequence of nodes a FloodRequest or FloodResponse
// has passed through.
type PathTrace []PathEntry

// NodeIds extracts just the NodeId half of every entry, in order.
func (t PathTrace) NodeIds() []NodeId {
	ids := make([]NodeId, len(t))
	for i, e := range t {
		ids[i] = e.Node
	}
	return ids
}

// WithAppended returns a new trace with entry appended; the receiver's
// backing array is never mutated, since the same trace is shared across
// concurrent neighbor broadcasts.
func (t PathTrace) WithAppended(entry PathEntry) PathTrace {
	out := make(PathTrace, len(t), len(t)+1)
	copy(out, t)
	return append(out, entry)
}
