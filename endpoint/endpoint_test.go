package endpoint

import (
	"math/rand"
	"testing"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/testutil"
)

func newTestServer(id core.NodeId, neighbors map[core.NodeId]chan<- *core.Packet) (*Endpoint, *netevent.Bus) {
	bus := netevent.NewBus(testutil.DefaultCapacity)
	e := NewServer(Config{
		ID:          id,
		Neighbors:   neighbors,
		PacketChan:  testutil.NewPacketChan(),
		CommandChan: make(chan Command, testutil.DefaultCapacity),
		Bus:         bus,
		Rand:        rand.New(rand.NewSource(1)),
		NextSession: testutil.Sequence(),
		NextFloodID: testutil.Sequence(),
	})
	return e, bus
}

// TestHandleFragmentAcksAlongReversedRoute models scenario S1: a server
// receiving a MsgFragment replies with an Ack retracing the route back to
// the originating client.
func TestHandleFragmentAcksAlongReversedRoute(t *testing.T) {
	back := testutil.NewPacketChan()
	e, _ := newTestServer(20, map[core.NodeId]chan<- *core.Packet{1: back})

	pkt := &core.Packet{
		Kind:      core.KindMsgFragment,
		SessionID: 1,
		Header:    core.SourceRoutingHeader{Hops: []core.NodeId{10, 1, 20}, HopIndex: 2},
		Fragment:  &core.MsgFragment{FragmentIndex: 3},
	}
	e.handlePacket(pkt)

	ack := testutil.Recv(t, back, testutil.ShortWait)
	if ack.Kind != core.KindAck || ack.AckData.FragmentIndex != 3 {
		t.Fatalf("reply = %+v; want an Ack for fragment 3", ack)
	}
	wantHops := []core.NodeId{20, 1, 10}
	if len(ack.Header.Hops) != len(wantHops) {
		t.Fatalf("ack.Header.Hops = %v; want %v", ack.Header.Hops, wantHops)
	}
	for i := range wantHops {
		if ack.Header.Hops[i] != wantHops[i] {
			t.Fatalf("ack.Header.Hops = %v; want %v", ack.Header.Hops, wantHops)
		}
	}

	if set, ok := e.PendingAssembly[1]; !ok || len(set) != 1 {
		t.Fatalf("PendingAssembly[1] = %v; want one recorded fragment index", set)
	}
}

// TestHandleFloodRequestTerminal models spec §4.2's edge-node rule: a
// server never re-broadcasts a FloodRequest, it always answers.
func TestHandleFloodRequestTerminal(t *testing.T) {
	back := testutil.NewPacketChan()
	e, bus := newTestServer(20, map[core.NodeId]chan<- *core.Packet{1: back})

	req := &core.Packet{
		Kind: core.KindFloodRequest,
		FReq: &core.FloodRequest{
			FloodID:     5,
			InitiatorID: 10,
			Trace:       core.PathTrace{{Node: 10, Kind: core.KindClient}, {Node: 1, Kind: core.KindDrone}},
		},
	}
	e.handlePacket(req)

	resp := testutil.Recv(t, back, testutil.ShortWait)
	if resp.Kind != core.KindFloodResponse || resp.FResp.FloodID != 5 {
		t.Fatalf("reply = %+v; want a FloodResponse for flood 5", resp)
	}
	if len(resp.FResp.Trace) != 3 || resp.FResp.Trace[2].Node != 20 {
		t.Fatalf("response trace = %v; want self appended at the end", resp.FResp.Trace)
	}

	select {
	case ev := <-bus.Events():
		if ev.Type != netevent.KindFloodAnswered {
			t.Fatalf("event = %v; want KindFloodAnswered", ev.Type)
		}
	default:
		t.Fatalf("expected a KindFloodAnswered event")
	}
}

// TestHandleFloodResponseMergesFreshAndIgnoresStale models the initiator
// side of flood discovery.
func TestHandleFloodResponseMergesFreshAndIgnoresStale(t *testing.T) {
	e, _ := newTestServer(20, map[core.NodeId]chan<- *core.Packet{})
	e.seen.Add(1)
	e.seen.Add(2) // 2 is the latest, known flood id

	fresh := &core.Packet{
		Kind: core.KindFloodResponse,
		FResp: &core.FloodResponse{
			FloodID: 2,
			Trace:   core.PathTrace{{Node: 20, Kind: core.KindServer}, {Node: 1, Kind: core.KindDrone}},
		},
	}
	e.handlePacket(fresh)
	if !e.Topology.HasEdge(20, 1) {
		t.Fatalf("a fresh flood response must merge into Topology")
	}

	stale := &core.Packet{
		Kind: core.KindFloodResponse,
		FResp: &core.FloodResponse{
			FloodID: 1,
			Trace:   core.PathTrace{{Node: 20, Kind: core.KindServer}, {Node: 99, Kind: core.KindDrone}},
		},
	}
	e.handlePacket(stale)
	if e.Topology.HasEdge(20, 99) {
		t.Fatalf("a stale flood response must not merge into Topology")
	}
}

// TestServerIgnoresCommands: servers accept no commands (spec §4.3); any
// delivered command is logged and rejected, never applied.
func TestServerIgnoresCommands(t *testing.T) {
	e, bus := newTestServer(20, map[core.NodeId]chan<- *core.Packet{})
	e.handleCommand(GetFilesList())

	select {
	case ev := <-bus.Events():
		if ev.Type != netevent.KindCommandRejected {
			t.Fatalf("event = %v; want KindCommandRejected", ev.Type)
		}
	default:
		t.Fatalf("expected a KindCommandRejected event")
	}
}

func TestClientAcceptsGetFilesList(t *testing.T) {
	bus := netevent.NewBus(testutil.DefaultCapacity)
	e := NewClient(Config{
		ID:          10,
		Neighbors:   map[core.NodeId]chan<- *core.Packet{},
		PacketChan:  testutil.NewPacketChan(),
		CommandChan: make(chan Command, testutil.DefaultCapacity),
		Bus:         bus,
		Rand:        rand.New(rand.NewSource(1)),
		NextSession: testutil.Sequence(),
		NextFloodID: testutil.Sequence(),
	})
	e.handleCommand(GetFilesList())

	select {
	case ev := <-bus.Events():
		if ev.Type != netevent.KindCommandApplied {
			t.Fatalf("event = %v; want KindCommandApplied", ev.Type)
		}
	default:
		t.Fatalf("expected a KindCommandApplied event")
	}
}
