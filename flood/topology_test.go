package flood

import (
	"testing"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
)

// TestTopologyMergeIsSymmetric merges a linear trace
// client(1)-drone(2)-drone(3)-server(4), where every discovered edge must be
// recorded in both directions.
func TestTopologyMergeIsSymmetric(t *testing.T) {
	topo := NewTopology()
	trace := core.PathTrace{
		{Node: 1, Kind: core.KindClient},
		{Node: 2, Kind: core.KindDrone},
		{Node: 3, Kind: core.KindDrone},
		{Node: 4, Kind: core.KindServer},
	}
	topo.Merge(trace)

	if !topo.HasEdge(1, 2) || !topo.HasEdge(2, 1) {
		t.Fatalf("expected edge 1-2 recorded in both directions")
	}
	if !topo.HasEdge(2, 3) || !topo.HasEdge(3, 2) {
		t.Fatalf("expected edge 2-3 recorded in both directions")
	}
	if !topo.HasEdge(3, 4) || !topo.HasEdge(4, 3) {
		t.Fatalf("expected edge 3-4 recorded in both directions")
	}
	if topo.HasEdge(1, 4) {
		t.Fatalf("did not expect a direct edge between non-adjacent trace entries")
	}

	kind, ok := topo.Kind(2)
	if !ok || kind != core.KindDrone {
		t.Fatalf("Kind(2) = %v, %v; want KindDrone, true", kind, ok)
	}
}

func TestTopologyMergeIsIdempotent(t *testing.T) {
	topo := NewTopology()
	trace := core.PathTrace{{Node: 1, Kind: core.KindClient}, {Node: 2, Kind: core.KindDrone}}
	topo.Merge(trace)
	topo.Merge(trace)

	if got := len(topo.Neighbors(1)); got != 1 {
		t.Fatalf("Neighbors(1) = %d entries after duplicate merge; want 1", got)
	}
}

func TestTopologySeedSelf(t *testing.T) {
	topo := NewTopology()
	topo.SeedSelf(1, core.KindClient, []core.NodeId{2, 3})

	neighbors := topo.Neighbors(1)
	if len(neighbors) != 2 {
		t.Fatalf("Neighbors(1) = %v; want 2 entries", neighbors)
	}
	if !topo.HasEdge(2, 1) {
		t.Fatalf("SeedSelf must record the reciprocal edge too")
	}
}
