package drone

import (
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/flood"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/routing"
)

// handleFloodRequest implements spec §4.2's drone behavior: append self to
// the trace, answer if the flood is already seen or there's nowhere else to
// send it, otherwise mark seen and re-broadcast to every neighbor but the
// one it arrived from.
func (d *Drone) handleFloodRequest(pkt *core.Packet) {
	req := pkt.FReq
	traceWithSelf := flood.AppendSelf(req, d.id, core.KindDrone)
	sender, _ := flood.SenderOf(traceWithSelf)

	neighborIDs := d.neighborIDs()

	if flood.ShouldAnswer(d.seenFloods, req.FloodID, neighborIDs, sender) {
		resp := routing.BuildFloodResponse(req.FloodID, traceWithSelf, d.nextSession())
		d.sendToFirstHop(resp)
		d.publish(netevent.KindFloodAnswered, "")
		return
	}

	d.seenFloods.Add(req.FloodID)

	targets := flood.BroadcastTargets(neighborIDs, sender)
	fwd := &core.Packet{
		Kind:      core.KindFloodRequest,
		SessionID: pkt.SessionID,
		FReq: &core.FloodRequest{
			FloodID:     req.FloodID,
			InitiatorID: req.InitiatorID,
			Trace:       traceWithSelf,
		},
	}
	for _, to := range targets {
		ch, ok := d.neighbors[to]
		if !ok {
			continue
		}
		select {
		case ch <- fwd:
			d.metrics.ObserveFloodForwarded()
		default:
			d.metrics.ObserveSendDrop()
			d.publish(netevent.KindSendFailed, "flood re-broadcast dropped, channel full")
		}
	}
	d.publish(netevent.KindFloodForwarded, "")
}

func (d *Drone) neighborIDs() []core.NodeId {
	ids := make([]core.NodeId, 0, len(d.neighbors))
	for id := range d.neighbors {
		ids = append(ids, id)
	}
	return ids
}
