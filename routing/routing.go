// Package routing implements the three contracts spec §4.4 requires every
// role to share: forwarding along a header, building a flood response, and
// reversing a packet's traversed prefix so a reply retraces it exactly.
package routing

import (
	"fmt"
	"log/slog"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
)

// ErrSendFailed is returned by Forward when the destination channel has no
// room. The caller treats this as transient packet loss, never a panic.
type ErrSendFailed struct {
	To  core.NodeId
	Err error
}

func (e *ErrSendFailed) Error() string {
	return fmt.Sprintf("routing: send to %d failed: %v", e.To, e.Err)
}

func (e *ErrSendFailed) Unwrap() error { return e.Err }

// Forward sends pkt to the channel for the node named by
// pkt.Header.Hops[pkt.Header.HopIndex]. The send is non-blocking: a full
// channel is logged and reported as a send error, never retried here and
// never allowed to block the caller's goroutine (spec §5).
func Forward(log *slog.Logger, pkt *core.Packet, neighbors map[core.NodeId]chan<- *core.Packet) error {
	to, ok := pkt.Header.CurrentHop()
	if !ok {
		return fmt.Errorf("routing: %w", core.ErrNoCurrentHop)
	}
	ch, ok := neighbors[to]
	if !ok {
		return fmt.Errorf("routing: node %d is not a neighbor", to)
	}
	select {
	case ch <- pkt:
		return nil
	default:
		if log != nil {
			log.Warn("send to neighbor failed, channel full", "to", to, "packet_kind", pkt.Kind)
		}
		return &ErrSendFailed{To: to, Err: core.ErrSendFailed}
	}
}

// ReverseRoute builds the header for a reply that must retrace the
// inclusive prefix hops[0..=uptoIndex], reversed, with hop_index = 1 — this
// fixes spec §9 Open Question 3 to a single rule used everywhere a NACK,
// ACK, or flood response is built.
func ReverseRoute(hops []core.NodeId, uptoIndex int) core.SourceRoutingHeader {
	prefix := hops[:uptoIndex+1]
	reversed := make([]core.NodeId, len(prefix))
	for i, h := range prefix {
		reversed[len(prefix)-1-i] = h
	}
	return core.SourceRoutingHeader{Hops: reversed, HopIndex: 1}
}

// BuildNack constructs a Nack packet addressed back along the reversed
// inclusive prefix hops[0..=detectedAt], as required by every row of
// spec §7's error table.
func BuildNack(original *core.Packet, detectedAt int, kind core.NackKind, offender core.NodeId, fragmentIndex uint64, sessionID uint64) *core.Packet {
	return &core.Packet{
		Kind:      core.KindNack,
		SessionID: sessionID,
		Header:    ReverseRoute(original.Header.Hops, detectedAt),
		NackData: &core.Nack{
			FragmentIndex: fragmentIndex,
			Kind:          kind,
			Node:          offender,
		},
	}
}

// BuildAck constructs an Ack packet addressed back along the reversed
// prefix hops[0..=uptoHopIndex] — the "reversed full route up through
// hop_index" spec §4.3 requires for fragment acknowledgment.
func BuildAck(original *core.Packet, uptoHopIndex int, sessionID uint64) *core.Packet {
	core.DebugAssert(original.Kind == core.KindMsgFragment, "BuildAck called on a non-fragment packet")
	var fragIdx uint64
	if original.Fragment != nil {
		fragIdx = original.Fragment.FragmentIndex
	}
	return &core.Packet{
		Kind:      core.KindAck,
		SessionID: sessionID,
		Header:    ReverseRoute(original.Header.Hops, uptoHopIndex),
		AckData:   &core.Ack{FragmentIndex: fragIdx},
	}
}

// BuildFloodResponse constructs the response packet for a completed flood
// trace: hops are the trace's NodeIds reversed, hop_index = 1, and a fresh
// session id distinct from the originating request's.
func BuildFloodResponse(floodID uint64, trace core.PathTrace, sessionID uint64) *core.Packet {
	ids := trace.NodeIds()
	reversed := make([]core.NodeId, len(ids))
	for i, h := range ids {
		reversed[len(ids)-1-i] = h
	}
	return &core.Packet{
		Kind:      core.KindFloodResponse,
		SessionID: sessionID,
		Header:    core.SourceRoutingHeader{Hops: reversed, HopIndex: 1},
		FResp: &core.FloodResponse{
			FloodID: floodID,
			Trace:   trace,
		},
	}
}
