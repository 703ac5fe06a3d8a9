package flood

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// InitiateRequest builds the FloodRequest an initiating client/server sends
// to every neighbor, per spec §4.2: a fresh flood id recorded in the
// initiator's own SeenSet, hops = [self], hop_index = 0.
func InitiateRequest(floodID uint64, self core.NodeId, kind core.NodeKind, sessionID uint64) *core.Packet {
	return &core.Packet{
		Kind:      core.KindFloodRequest,
		SessionID: sessionID,
		Header:    core.SourceRoutingHeader{Hops: []core.NodeId{self}, HopIndex: 0},
		FReq: &core.FloodRequest{
			FloodID:     floodID,
			InitiatorID: self,
			Trace:       core.PathTrace{{Node: self, Kind: kind}},
		},
	}
}

// AppendSelf returns a new trace with (self, kind) appended to req's trace.
func AppendSelf(req *core.FloodRequest, self core.NodeId, kind core.NodeKind) core.PathTrace {
	return req.Trace.WithAppended(core.PathEntry{Node: self, Kind: kind})
}

// SenderOf identifies the neighbor a flood request arrived from, given the
// trace AFTER this node has appended itself: spec §4.2.2 defines it as
// trace[len-2].Node — the entry immediately before this node's own.
func SenderOf(traceWithSelf core.PathTrace) (core.NodeId, bool) {
	if len(traceWithSelf) < 2 {
		return 0, false
	}
	return traceWithSelf[len(traceWithSelf)-2].Node, true
}

// ShouldAnswer implements spec §4.2.3's termination condition for a drone:
// answer instead of re-broadcasting when the flood id has already been
// seen, or when sender is this drone's only neighbor (nowhere else to send).
func ShouldAnswer(seen *SeenSet, floodID uint64, neighborIDs []core.NodeId, sender core.NodeId) bool {
	if seen.Contains(floodID) {
		return true
	}
	if len(neighborIDs) == 0 {
		return true
	}
	if len(neighborIDs) == 1 && neighborIDs[0] == sender {
		return true
	}
	return false
}

// BroadcastTargets returns every neighbor id except sender, implementing
// spec §4.2.4's "re-broadcast to every neighbor except the one it arrived
// from" (loop-freedom rationale in spec §4.2).
func BroadcastTargets(neighborIDs []core.NodeId, sender core.NodeId) []core.NodeId {
	out := make([]core.NodeId, 0, len(neighborIDs))
	for _, n := range neighborIDs {
		if n != sender {
			out = append(out, n)
		}
	}
	return out
}

// ResponseDisposition classifies how an initiator should handle an inbound
// FloodResponse against its own SeenSet, per spec §4.2:
//   - Unknown: flood_id was never recorded by this initiator — a protocol
//     violation (core.DebugAssert under the netsimdebug build tag decides
//     whether callers panic or drop).
//   - Stale: flood_id is known but is not the most recently issued one.
//   - Fresh: accept and merge.
type ResponseDisposition int

const (
	ResponseFresh ResponseDisposition = iota
	ResponseStale
	ResponseUnknown
)

// Classify determines the disposition of an inbound FloodResponse.
func Classify(seen *SeenSet, floodID uint64) ResponseDisposition {
	if !seen.Contains(floodID) {
		return ResponseUnknown
	}
	latest, ok := seen.Latest()
	if ok && latest != floodID {
		return ResponseStale
	}
	return ResponseFresh
}
