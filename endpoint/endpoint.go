// Package endpoint implements the shared client/server edge-node runtime
// of spec §4.3: topology seeding, flood initiation, terminal flood
// handling, and fragment acknowledgment. Grounded on the teacher's
// device/contact and device/connection actor shape, generalized from
// MeshCore's persistent-contact bookkeeping to this simulator's
// topology-discovery bookkeeping.
package endpoint

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

// Config configures an Endpoint at construction time.
type Config struct {
	ID          core.NodeId
	Kind        core.NodeKind // KindClient or KindServer
	Neighbors   map[core.NodeId]chan<- *core.Packet
	PacketChan  <-chan *core.Packet
	CommandChan <-chan Command
	Bus         *netevent.Bus
	Metrics     *metrics.Registry
	Logger      *slog.Logger
	Rand        *rand.Rand
	NextSession func() uint64
	NextFloodID func() uint64
}

// Endpoint is the client/server edge-node state machine. All mutable
// state — Topology, SeenFloods, PendingAssembly — is owned and mutated
// only by this goroutine.
type Endpoint struct {
	id        core.NodeId
	kind      core.NodeKind
	neighbors map[core.NodeId]chan<- *core.Packet

	Topology *flood.Topology
	seen     *flood.SeenSet

	// PendingAssembly tracks, per session, which fragment indices of a
	// multi-fragment message have been received — pure bookkeeping
	// exposed to an upper layer, performing no reassembly or redelivery
	// itself (spec's explicit Non-goal on reliable delivery). Supplements
	// the distilled spec with the original implementation's per-contact
	// HashMap bookkeeping (see SPEC_FULL.md §4.3).
	PendingAssembly map[uint64]map[uint64]struct{}

	rng         *rand.Rand
	nextSession func() uint64
	nextFloodID func() uint64

	packetChan  <-chan *core.Packet
	commandChan <-chan Command
	bus         *netevent.Bus
	metrics     *metrics.Registry
	log         *slog.Logger
}

// New constructs an Endpoint ready to Run.
func New(cfg Config) *Endpoint {
	neighbors := make(map[core.NodeId]chan<- *core.Packet, len(cfg.Neighbors))
	for id, ch := range cfg.Neighbors {
		neighbors[id] = ch
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(cfg.ID) + 1))
	}
	nextSession := cfg.NextSession
	if nextSession == nil {
		nextSession = func() uint64 { return rng.Uint64() }
	}
	nextFloodID := cfg.NextFloodID
	if nextFloodID == nil {
		nextFloodID = func() uint64 { return rng.Uint64() }
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Endpoint{
		id:              cfg.ID,
		kind:            cfg.Kind,
		neighbors:       neighbors,
		Topology:        flood.NewTopology(),
		seen:            flood.NewSeenSet(),
		PendingAssembly: make(map[uint64]map[uint64]struct{}),
		rng:             rng,
		nextSession:     nextSession,
		nextFloodID:     nextFloodID,
		packetChan:      cfg.PacketChan,
		commandChan:     cfg.CommandChan,
		bus:             cfg.Bus,
		metrics:         cfg.Metrics,
		log:             logging.ForNode(log, cfg.Kind.String(), uint8(cfg.ID)),
	}
}

// ID returns this node's id.
func (e *Endpoint) ID() core.NodeId { return e.id }

// Run seeds the topology with direct neighbors, initiates a flood, then
// services packets and commands until ctx is cancelled or the channels
// close (spec §4.3 — clients/servers run until host process exit; a
// graceful shutdown mechanism is a non-goal, so ctx cancellation is the
// only exit path this simulator offers).
func (e *Endpoint) Run(ctx context.Context) {
	e.seedTopology()
	e.InitiateFlood()

	for {
		// Non-blocking priority check: commands win simultaneous readiness.
		select {
		case cmd, ok := <-e.commandChan:
			if !ok {
				return
			}
			e.handleCommand(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-e.commandChan:
			if !ok {
				return
			}
			e.handleCommand(cmd)
		case pkt, ok := <-e.packetChan:
			if !ok {
				return
			}
			e.handlePacket(pkt)
		}
	}
}

func (e *Endpoint) seedTopology() {
	ids := make([]core.NodeId, 0, len(e.neighbors))
	for id := range e.neighbors {
		ids = append(ids, id)
	}
	e.Topology.SeedSelf(e.id, e.kind, ids)
}

// InitiateFlood chooses a fresh flood id, records it, and broadcasts a
// FloodRequest to every current neighbor (spec §4.2).
func (e *Endpoint) InitiateFlood() {
	floodID := e.nextFloodID()
	e.seen.Add(floodID)
	req := flood.InitiateRequest(floodID, e.id, e.kind, e.nextSession())

	for _, ch := range e.neighbors {
		select {
		case ch <- req.Clone():
		default:
			e.metrics.ObserveSendDrop()
		}
	}
	e.metrics.ObserveFloodInitiated()
	e.publish(netevent.KindFloodInitiated, "")
}

func (e *Endpoint) publish(kind netevent.Kind, detail string) {
	e.bus.Publish(netevent.Event{Node: e.id, Kind: e.kind, Type: kind, Detail: detail})
}

func (e *Endpoint) handleCommand(cmd Command) {
	if e.kind != core.KindClient {
		e.log.Warn("command received by a node role that accepts none, ignoring", "kind", cmd.Kind)
		e.publish(netevent.KindCommandRejected, "role accepts no commands")
		return
	}
	switch cmd.Kind {
	case CmdGetFilesList:
		e.log.Info("application request: get files list")
		e.publish(netevent.KindCommandApplied, "get_files_list")
	default:
		e.log.Warn("unrecognized command, ignoring", "kind", cmd.Kind)
		e.publish(netevent.KindCommandRejected, "unrecognized command")
	}
}

func (e *Endpoint) handlePacket(pkt *core.Packet) {
	switch pkt.Kind {
	case core.KindFloodRequest:
		e.handleFloodRequestTerminal(pkt)
	case core.KindFloodResponse:
		e.handleFloodResponse(pkt)
	case core.KindMsgFragment:
		e.handleFragment(pkt)
	case core.KindAck, core.KindNack:
		e.log.Debug("received", "packet_kind", pkt.Kind, "session_id", pkt.SessionID)
	}
}

// handleFragment builds an Ack and forwards it along the reversed full
// route up through the fragment's arrival hop_index (spec §4.3).
func (e *Endpoint) handleFragment(pkt *core.Packet) {
	if frag := pkt.Fragment; frag != nil {
		set, ok := e.PendingAssembly[pkt.SessionID]
		if !ok {
			set = make(map[uint64]struct{})
			e.PendingAssembly[pkt.SessionID] = set
		}
		set[frag.FragmentIndex] = struct{}{}
	}

	ack := routing.BuildAck(pkt, pkt.Header.HopIndex, e.nextSession())
	if err := routing.Forward(e.log, ack, e.neighbors); err != nil {
		e.metrics.ObserveSendDrop()
		e.publish(netevent.KindSendFailed, err.Error())
		return
	}
	e.publish(netevent.KindAckSent, "")
}

// handleFloodRequestTerminal implements spec §4.2's edge-node rule: treat
// any request as terminal, never re-broadcast.
func (e *Endpoint) handleFloodRequestTerminal(pkt *core.Packet) {
	req := pkt.FReq
	traceWithSelf := flood.AppendSelf(req, e.id, e.kind)
	resp := routing.BuildFloodResponse(req.FloodID, traceWithSelf, e.nextSession())
	if err := routing.Forward(e.log, resp, e.neighbors); err != nil {
		e.metrics.ObserveSendDrop()
		e.publish(netevent.KindSendFailed, err.Error())
		return
	}
	e.publish(netevent.KindFloodAnswered, "")
}

// handleFloodResponse implements spec §4.2's initiator-side classification:
// fresh responses merge into Topology, stale responses are ignored, and
// responses for an unknown flood_id are a protocol violation whose
// handling is controlled by the netsimdebug build tag (spec §9 Open
// Question 1): panic in development, log-and-drop in production.
func (e *Endpoint) handleFloodResponse(pkt *core.Packet) {
	resp := pkt.FResp
	switch flood.Classify(e.seen, resp.FloodID) {
	case flood.ResponseUnknown:
		core.DebugAssert(false, "flood response received for a flood_id this node never initiated")
		e.log.Warn("dropping flood response for unknown flood_id", "flood_id", resp.FloodID)
	case flood.ResponseStale:
		e.log.Debug("dropping stale flood response", "flood_id", resp.FloodID)
	case flood.ResponseFresh:
		e.Topology.Merge(resp.Trace)
		e.publish(netevent.KindTopologyMerged, "")
	}
}
