package drone

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/testutil"
)

func newTestDrone(id core.NodeId, pdr float64, neighbors map[core.NodeId]chan<- *core.Packet) (*Drone, *netevent.Bus) {
	bus := netevent.NewBus(testutil.DefaultCapacity)
	pktCh := testutil.NewPacketChan()
	cmdCh := make(chan Command, testutil.DefaultCapacity)
	d := New(Config{
		ID:          id,
		PDR:         pdr,
		Neighbors:   neighbors,
		PacketChan:  pktCh,
		CommandChan: cmdCh,
		Bus:         bus,
		Rand:        rand.New(rand.NewSource(1)),
		NextSession: testutil.Sequence(),
	})
	return d, bus
}

// TestUnexpectedRecipientNacksBack models scenario S6: a packet arrives at
// a drone whose own id does not match the header's current hop.
func TestUnexpectedRecipientNacksBack(t *testing.T) {
	back := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 0, map[core.NodeId]chan<- *core.Packet{1: back})

	pkt := &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 99, 3}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 4},
	}
	d.handlePacket(pkt)

	reply := testutil.Recv(t, back, testutil.ShortWait)
	if reply.Kind != core.KindNack || reply.NackData.Kind != core.NackUnexpectedRecipient {
		t.Fatalf("reply = %+v; want an UnexpectedRecipient Nack", reply)
	}
	if reply.NackData.Node != 2 {
		t.Fatalf("NackData.Node = %d; want the drone's own id (2)", reply.NackData.Node)
	}
}

// TestDestinationIsDroneNacksBack models step 4: a drone is never a valid
// final addressee for a MsgFragment.
func TestDestinationIsDroneNacksBack(t *testing.T) {
	back := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 0, map[core.NodeId]chan<- *core.Packet{1: back})

	pkt := &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 1},
	}
	d.handlePacket(pkt)

	reply := testutil.Recv(t, back, testutil.ShortWait)
	if reply.Kind != core.KindNack || reply.NackData.Kind != core.NackDestinationIsDrone {
		t.Fatalf("reply = %+v; want a DestinationIsDrone Nack", reply)
	}
}

// TestErrorInRoutingNacksBack models scenario S2: the next hop named by the
// header is not among this drone's known neighbors.
func TestErrorInRoutingNacksBack(t *testing.T) {
	back := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 0, map[core.NodeId]chan<- *core.Packet{1: back})

	pkt := &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 77}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 1},
	}
	d.handlePacket(pkt)

	reply := testutil.Recv(t, back, testutil.ShortWait)
	if reply.Kind != core.KindNack || reply.NackData.Kind != core.NackErrorInRouting {
		t.Fatalf("reply = %+v; want an ErrorInRouting Nack", reply)
	}
	if reply.NackData.Node != 77 {
		t.Fatalf("NackData.Node = %d; want the unreachable next hop (77)", reply.NackData.Node)
	}
}

// TestPDRZeroAlwaysForwards and TestPDROneAlwaysDrops pin down the PDR law
// at its boundary values, which is deterministic regardless of the seeded
// RNG: Float64() always lands in [0, 1).
func TestPDRZeroAlwaysForwards(t *testing.T) {
	fwd := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 0, map[core.NodeId]chan<- *core.Packet{3: fwd})

	pkt := &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 3}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 1},
	}
	d.handlePacket(pkt)
	testutil.Recv(t, fwd, testutil.ShortWait)
}

func TestPDROneAlwaysDrops(t *testing.T) {
	fwd := testutil.NewPacketChan()
	back := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 1, map[core.NodeId]chan<- *core.Packet{3: fwd, 1: back})

	pkt := &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 3}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 1},
	}
	d.handlePacket(pkt)

	testutil.RecvNone(t, fwd, testutil.ShortWait)
	reply := testutil.Recv(t, back, testutil.ShortWait)
	if reply.NackData.Kind != core.NackDropped {
		t.Fatalf("reply kind = %v; want NackDropped", reply.NackData.Kind)
	}
}

// TestAckAndNackNeverRollPDR: step 6 only applies the drop roll to
// MsgFragment traffic, so a drone at PDR 1 still forwards an Ack untouched.
func TestAckAndNackNeverRollPDR(t *testing.T) {
	fwd := testutil.NewPacketChan()
	d, _ := newTestDrone(2, 1, map[core.NodeId]chan<- *core.Packet{3: fwd})

	pkt := &core.Packet{
		Kind:    core.KindAck,
		Header:  core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 3}, HopIndex: 1},
		AckData: &core.Ack{FragmentIndex: 1},
	}
	d.handlePacket(pkt)
	testutil.Recv(t, fwd, testutil.ShortWait)
}

// TestCrashDrainsBacklog models scenario S5: a Crash command drains every
// packet already queued before the drone exits.
func TestCrashDrainsBacklog(t *testing.T) {
	fwd := testutil.NewPacketChan()
	bus := netevent.NewBus(testutil.DefaultCapacity)
	pktCh := testutil.NewPacketChan()
	cmdCh := make(chan Command, testutil.DefaultCapacity)
	d := New(Config{
		ID:          2,
		Neighbors:   map[core.NodeId]chan<- *core.Packet{3: fwd},
		PacketChan:  pktCh,
		CommandChan: cmdCh,
		Bus:         bus,
		Rand:        rand.New(rand.NewSource(1)),
		NextSession: testutil.Sequence(),
	})

	pktCh <- &core.Packet{
		Kind:     core.KindMsgFragment,
		Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 3}, HopIndex: 1},
		Fragment: &core.MsgFragment{FragmentIndex: 1},
	}
	cmdCh <- Crash()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after Crash")
	}
	if !d.ShouldExit() {
		t.Fatalf("ShouldExit() = false after Crash")
	}
	testutil.Recv(t, fwd, testutil.ShortWait)
}

// TestCommandPriorityOverPackets models scenario S3: when both a packet and
// a command are simultaneously ready, the command must win the race so the
// control plane is never starved by traffic.
func TestCommandPriorityOverPackets(t *testing.T) {
	fwd := testutil.NewPacketChan()
	bus := netevent.NewBus(testutil.DefaultCapacity)
	pktCh := testutil.NewPacketChan()
	cmdCh := make(chan Command, testutil.DefaultCapacity)
	d := New(Config{
		ID:          2,
		Neighbors:   map[core.NodeId]chan<- *core.Packet{3: fwd},
		PacketChan:  pktCh,
		CommandChan: cmdCh,
		Bus:         bus,
		Rand:        rand.New(rand.NewSource(1)),
		NextSession: testutil.Sequence(),
	})

	// Queue several packets and a PDR change before Run ever starts, so
	// both channels are ready on the very first loop iteration.
	for i := 0; i < 3; i++ {
		pktCh <- &core.Packet{
			Kind:     core.KindMsgFragment,
			Header:   core.SourceRoutingHeader{Hops: []core.NodeId{1, 2, 3}, HopIndex: 1},
			Fragment: &core.MsgFragment{FragmentIndex: uint64(i)},
		}
	}
	cmdCh <- SetPacketDropRate(1)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	defer cancel()

	// Drain the first event; it must be the command, not a forwarded
	// packet, because the command channel is checked non-blockingly first.
	select {
	case ev := <-bus.Events():
		if ev.Type != netevent.KindCommandApplied {
			t.Fatalf("first observed event = %v; want KindCommandApplied", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event observed")
	}
}
