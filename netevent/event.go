// Package netevent defines the central observability event channel spec §6
// requires the bootstrap to hand every node a send endpoint for: a way to
// surface per-packet and per-command outcomes to an operator console
// without coupling the drone/endpoint runtimes to any particular UI.
package netevent

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// Kind discriminates the events a node can emit.
type Kind uint8

const (
	KindForwarded Kind = iota
	KindDroppedPDR
	KindNackUnexpectedRecipient
	KindNackDestinationDrone
	KindNackErrorInRouting
	KindAckSent
	KindFloodInitiated
	KindFloodForwarded
	KindFloodAnswered
	KindTopologyMerged
	KindCommandApplied
	KindCommandRejected
	KindCrashed
	KindSendFailed
)

func (k Kind) String() string {
	switch k {
	case KindForwarded:
		return "forwarded"
	case KindDroppedPDR:
		return "dropped_pdr"
	case KindNackUnexpectedRecipient:
		return "nack_unexpected_recipient"
	case KindNackDestinationDrone:
		return "nack_destination_drone"
	case KindNackErrorInRouting:
		return "nack_error_in_routing"
	case KindAckSent:
		return "ack_sent"
	case KindFloodInitiated:
		return "flood_initiated"
	case KindFloodForwarded:
		return "flood_forwarded"
	case KindFloodAnswered:
		return "flood_answered"
	case KindTopologyMerged:
		return "topology_merged"
	case KindCommandApplied:
		return "command_applied"
	case KindCommandRejected:
		return "command_rejected"
	case KindCrashed:
		return "crashed"
	case KindSendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

// Event is one observability record, published by a node and consumed by
// the control plane / CLI. Detail is a short human-readable note (e.g. a
// command validation error); it is never used for control flow.
type Event struct {
	Node   core.NodeId
	Kind   core.NodeKind
	Type   Kind
	Detail string
}

// Bus is a fan-in send endpoint for node events. A nil Bus is valid: Publish
// becomes a no-op, so tests that don't care about observability can
// construct nodes without wiring one up.
type Bus struct {
	ch chan Event
}

// NewBus creates a Bus with the given buffer capacity.
func NewBus(capacity int) *Bus {
	return &Bus{ch: make(chan Event, capacity)}
}

// Publish sends ev without blocking. If the bus is full the event is
// silently dropped — observability must never backpressure a node's
// packet-handling loop.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	select {
	case b.ch <- ev:
	default:
	}
}

// Events exposes the receive side for a single consumer (the control plane).
func (b *Bus) Events() <-chan Event {
	if b == nil {
		return nil
	}
	return b.ch
}
