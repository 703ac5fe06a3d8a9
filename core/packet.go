package core

import "fmt"

// FragmentDataSize is the fixed payload size carried by every MsgFragment,
// matching the fixed-size-fragment convention the routing layer assumes.
const FragmentDataSize = 128

// PacketKind discriminates the Packet tagged union.
type PacketKind uint8

const (
	KindMsgFragment PacketKind = iota
	KindAck
	KindNack
	KindFloodRequest
	KindFloodResponse
)

func (k PacketKind) String() string {
	switch k {
	case KindMsgFragment:
		return "MsgFragment"
	case KindAck:
		return "Ack"
	case KindNack:
		return "Nack"
	case KindFloodRequest:
		return "FloodRequest"
	case KindFloodResponse:
		return "FloodResponse"
	default:
		return fmt.Sprintf("PacketKind(%d)", uint8(k))
	}
}

// NackKind distinguishes the reasons a drone can refuse to carry a packet
// further. UnexpectedRecipient and ErrorInRouting carry the offending
// NodeId so the initiator can diagnose the failure.
type NackKind uint8

const (
	NackDropped NackKind = iota
	NackDestinationIsDrone
	NackUnexpectedRecipient
	NackErrorInRouting
)

func (k NackKind) String() string {
	switch k {
	case NackDropped:
		return "Dropped"
	case NackDestinationIsDrone:
		return "DestinationIsDrone"
	case NackUnexpectedRecipient:
		return "UnexpectedRecipient"
	case NackErrorInRouting:
		return "ErrorInRouting"
	default:
		return fmt.Sprintf("NackKind(%d)", uint8(k))
	}
}

// MsgFragment is the opaque, fixed-size payload unit.
type MsgFragment struct {
	FragmentIndex  uint64
	TotalFragments uint64
	Length         uint8
	Data           [FragmentDataSize]byte
}

// Ack positively acknowledges receipt of a fragment.
type Ack struct {
	FragmentIndex uint64
}

// Nack negatively acknowledges a fragment or signals a routing failure.
// Node is only meaningful for NackUnexpectedRecipient and NackErrorInRouting.
type Nack struct {
	FragmentIndex uint64
	Kind          NackKind
	Node          NodeId
}

// FloodRequest disseminates a discovery probe. It is not routed by Header —
// drones and edge nodes decide where to send it next from Trace and their
// own neighbor set.
type FloodRequest struct {
	FloodID     uint64
	InitiatorID NodeId
	Trace       PathTrace
}

// FloodResponse carries a completed discovery trace back to its initiator.
// Unlike FloodRequest it IS routed by Header (hops = reversed trace).
type FloodResponse struct {
	FloodID uint64
	Trace   PathTrace
}

// Packet is the tagged union carried on every node channel. Exactly one of
// the typed fields is populated, selected by Kind. SessionID is an opaque
// correlation tag not interpreted by routing logic beyond logging.
type Packet struct {
	Kind      PacketKind
	SessionID uint64
	Header    SourceRoutingHeader

	Fragment *MsgFragment
	AckData  *Ack
	NackData *Nack
	FReq     *FloodRequest
	FResp    *FloodResponse
}

// IsFlood reports whether this packet is one of the two flood-protocol
// variants (these are never subject to the drone's PDR roll).
func (p *Packet) IsFlood() bool {
	return p.Kind == KindFloodRequest || p.Kind == KindFloodResponse
}

// Clone returns a deep-enough copy of p suitable for mutating Header without
// affecting any other goroutine's view of the original packet. Ownership of
// a packet transfers on send; a clone is made only when a node needs to keep
// sending a derived copy (e.g. an endpoint sending its initial flood request
// to every neighbor) while the original dispatch continues unmodified.
func (p *Packet) Clone() *Packet {
	clone := *p
	clone.Header.Hops = append([]NodeId(nil), p.Header.Hops...)
	if p.FReq != nil {
		req := *p.FReq
		req.Trace = append(PathTrace(nil), p.FReq.Trace...)
		clone.FReq = &req
	}
	if p.FResp != nil {
		resp := *p.FResp
		resp.Trace = append(PathTrace(nil), p.FResp.Trace...)
		clone.FResp = &resp
	}
	return &clone
}
