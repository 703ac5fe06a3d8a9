// Package core defines the wire-level data model shared by every node role:
// node identifiers, source routing headers, path traces, and the packet
// tagged union. Nothing in this package owns a channel or a goroutine.
package core

import "fmt"

// NodeId is a small unsigned integer, unique per node in the fleet.
type NodeId uint8

// NodeKind identifies which of the three roles a node plays. It is recorded
// in PathTrace entries so that an initiator can tell drones from edge nodes
// when rendering a discovered topology.
type NodeKind uint8

const (
	KindDrone NodeKind = iota
	KindClient
	KindServer
)

func (k NodeKind) String() string {
	switch k {
	case KindDrone:
		return "drone"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
