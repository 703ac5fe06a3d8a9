// Package drone implements the interior forwarding and flooding state
// machine of spec §4.1: routing verification, hop advance, PDR-based drop,
// NACK generation, and flood re-broadcast. It is the node runtime core,
// grounded on the teacher's device/router.Router.HandlePacket gate
// sequence and core/connection.Manager's actor-owned mutable state.
package drone

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/flood"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/internal/logging"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/internal/metrics"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/routing"
)

// Config configures a Drone at construction time. All fields besides ID,
// PacketChan, and CommandChan have sane defaults.
type Config struct {
	ID          core.NodeId
	PDR         float64
	Neighbors   map[core.NodeId]chan<- *core.Packet
	PacketChan  <-chan *core.Packet
	CommandChan <-chan Command
	Bus         *netevent.Bus
	Metrics     *metrics.Registry
	Logger      *slog.Logger
	Rand        *rand.Rand // per-actor generator; supply a seeded one for deterministic tests
	NextSession func() uint64
}

// Drone is the interior node's state machine, owned and mutated only by
// its own goroutine (spec §5: "no locks are necessary anywhere in the
// core").
type Drone struct {
	id          core.NodeId
	pdr         float64
	neighbors   map[core.NodeId]chan<- *core.Packet
	seenFloods  *flood.SeenSet
	shouldExit  bool
	rng         *rand.Rand
	nextSession func() uint64

	packetChan  <-chan *core.Packet
	commandChan <-chan Command
	bus         *netevent.Bus
	metrics     *metrics.Registry
	log         *slog.Logger
}

// New constructs a Drone ready to Run.
func New(cfg Config) *Drone {
	neighbors := make(map[core.NodeId]chan<- *core.Packet, len(cfg.Neighbors))
	for id, ch := range cfg.Neighbors {
		neighbors[id] = ch
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(cfg.ID) + 1))
	}
	next := cfg.NextSession
	if next == nil {
		next = func() uint64 { return rng.Uint64() }
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Drone{
		id:          cfg.ID,
		pdr:         clampPDR(cfg.PDR),
		neighbors:   neighbors,
		seenFloods:  flood.NewSeenSet(),
		rng:         rng,
		nextSession: next,
		packetChan:  cfg.PacketChan,
		commandChan: cfg.CommandChan,
		bus:         cfg.Bus,
		metrics:     cfg.Metrics,
		log:         logging.ForNode(log, "drone", uint8(cfg.ID)),
	}
}

func clampPDR(pdr float64) float64 {
	if pdr < 0 {
		return 0
	}
	if pdr > 1 {
		return 1
	}
	return pdr
}

// ID returns this drone's node id.
func (d *Drone) ID() core.NodeId { return d.id }

// PDR returns the current packet drop rate.
func (d *Drone) PDR() float64 { return d.pdr }

// ShouldExit reports whether the drone has processed a Crash and drained.
func (d *Drone) ShouldExit() bool { return d.shouldExit }

// Run blocks, servicing packets and commands in a biased selection that
// prefers the command channel on tie, until a Crash command drains the
// backlog and sets shouldExit (spec §4.1, §5).
func (d *Drone) Run(ctx context.Context) {
	for {
		if d.shouldExit {
			return
		}

		// Non-blocking priority check: commands win simultaneous readiness.
		select {
		case cmd, ok := <-d.commandChan:
			if !ok {
				return
			}
			d.handleCommand(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-d.commandChan:
			if !ok {
				return
			}
			d.handleCommand(cmd)
		case pkt, ok := <-d.packetChan:
			if !ok {
				return
			}
			d.handlePacket(pkt)
		}
	}
}

// handleCommand applies a single control-plane command.
func (d *Drone) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdAddSender:
		d.neighbors[cmd.NeighborID] = cmd.Sender
		d.publish(netevent.KindCommandApplied, "add_sender")
	case CmdRemoveSender:
		if _, ok := d.neighbors[cmd.NeighborID]; !ok {
			d.log.Warn("remove_sender: neighbor not present, ignoring", "neighbor", cmd.NeighborID)
			d.publish(netevent.KindCommandRejected, "remove_sender: unknown neighbor")
			return
		}
		delete(d.neighbors, cmd.NeighborID)
		d.publish(netevent.KindCommandApplied, "remove_sender")
	case CmdSetPacketDropRate:
		d.pdr = clampPDR(cmd.PDR)
		d.publish(netevent.KindCommandApplied, "set_packet_drop_rate")
	case CmdCrash:
		d.drain()
		d.shouldExit = true
		d.publish(netevent.KindCrashed, "")
	default:
		d.log.Warn("unrecognized command, ignoring", "kind", cmd.Kind)
	}
}

// drain processes every packet already queued in the inbound channel using
// normal handling rules, then returns. Packets that arrive after drain
// starts (once shouldExit is set by the caller) are not read.
func (d *Drone) drain() {
	for {
		select {
		case pkt, ok := <-d.packetChan:
			if !ok {
				return
			}
			d.handlePacket(pkt)
		default:
			return
		}
	}
}

func (d *Drone) publish(kind netevent.Kind, detail string) {
	d.bus.Publish(netevent.Event{Node: d.id, Kind: core.KindDrone, Type: kind, Detail: detail})
}

// handlePacket runs the five-step state machine of spec §4.1 on one packet.
func (d *Drone) handlePacket(pkt *core.Packet) {
	if pkt.Kind == core.KindFloodRequest {
		d.handleFloodRequest(pkt)
		return
	}

	// The drone's physical position in this packet's path for the
	// lifetime of this call — every NACK generated below reverses the
	// inclusive prefix ending here, because the packet never actually
	// leaves this drone in any failure case (spec §9 Open Question 3).
	selfIndex := pkt.Header.HopIndex

	// Step 2: routing check.
	cur, ok := pkt.Header.CurrentHop()
	if !ok {
		// A HopIndex outside Hops is a malformed packet: fail fast under
		// netsimdebug, otherwise log and drop it.
		core.DebugAssert(false, "drone received a packet whose hop_index is out of range")
		d.log.Warn("dropping malformed packet, hop_index out of range", "hop_index", pkt.Header.HopIndex)
		return
	}
	if cur != d.id {
		d.replyNack(pkt, selfIndex, core.NackUnexpectedRecipient, d.id, fragmentIndexOf(pkt))
		d.metrics.ObservePacket("nack_unexpected_recipient")
		d.publish(netevent.KindNackUnexpectedRecipient, "")
		return
	}

	// Step 3: advance.
	pkt.Header = pkt.Header.Advanced()

	// Step 4: destination check — drones are never a final addressee.
	if pkt.Header.AtDestination() {
		d.replyNack(pkt, selfIndex, core.NackDestinationIsDrone, 0, fragmentIndexOf(pkt))
		d.metrics.ObservePacket("nack_destination_drone")
		d.publish(netevent.KindNackDestinationDrone, "")
		return
	}

	// Step 5: next-hop check.
	next, _ := pkt.Header.CurrentHop()
	_, known := d.neighbors[next]
	if !known {
		d.replyNack(pkt, selfIndex, core.NackErrorInRouting, next, fragmentIndexOf(pkt))
		d.metrics.ObservePacket("nack_error_in_routing")
		d.publish(netevent.KindNackErrorInRouting, "")
		return
	}

	// Step 6: PDR roll applies only to MsgFragment traffic.
	if pkt.Kind == core.KindMsgFragment {
		if d.rng.Float64() < d.pdr {
			d.replyNack(pkt, selfIndex, core.NackDropped, 0, fragmentIndexOf(pkt))
			d.metrics.ObservePacket("dropped_pdr")
			d.publish(netevent.KindDroppedPDR, "")
			return
		}
	}

	// Step 7: forward unmodified (Ack/Nack/FloodResponse never roll PDR).
	if err := routing.Forward(d.log, pkt, d.neighbors); err != nil {
		d.metrics.ObserveSendDrop()
		d.publish(netevent.KindSendFailed, err.Error())
		return
	}
	d.metrics.ObservePacket("forwarded")
	d.publish(netevent.KindForwarded, "")
}

func fragmentIndexOf(pkt *core.Packet) uint64 {
	if pkt.Fragment != nil {
		return pkt.Fragment.FragmentIndex
	}
	return 0
}

// replyNack builds and sends a NACK back along the reversed inclusive
// prefix hops[0..=k], per routing.ReverseRoute.
func (d *Drone) replyNack(original *core.Packet, k int, kind core.NackKind, offender core.NodeId, fragIdx uint64) {
	nack := routing.BuildNack(original, k, kind, offender, fragIdx, d.nextSession())
	d.sendToFirstHop(nack)
}

// sendToFirstHop sends a reply packet to the first hop of its own header —
// the neighbor the original packet arrived from.
func (d *Drone) sendToFirstHop(pkt *core.Packet) {
	if err := routing.Forward(d.log, pkt, d.neighbors); err != nil {
		d.metrics.ObserveSendDrop()
		d.publish(netevent.KindSendFailed, err.Error())
	}
}
