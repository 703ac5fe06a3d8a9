// Package control implements the controller collaborator spec §6 names:
// the operations backing the CLI's crash/spawn/exit surface and the
// AddSender/RemoveSender/SetPacketDropRate commands of spec §4.1, applied
// to a running fleet from outside any node's own goroutine.
package control

import (
	"context"
	"fmt"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/drone"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/flood"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/sim"
)

// Controller drives commands into a running sim.Fleet and observes its
// event bus. It never reaches into node state directly — every action is
// a message sent over the same channels the node's own actor loop reads.
type Controller struct {
	fleet *sim.Fleet
}

// New wraps fleet with a Controller.
func New(fleet *sim.Fleet) *Controller {
	return &Controller{fleet: fleet}
}

// Crash sends a Crash command to the named drone. Clients/servers have no
// crash operation (spec §5: "a graceful shutdown mechanism is a non-goal"
// for edge nodes; only drones accept Crash).
func (c *Controller) Crash(id core.NodeId) error {
	ch, ok := c.fleet.DroneCommand(id)
	if !ok {
		return fmt.Errorf("control: %d is not a known drone", id)
	}
	ch <- drone.Crash()
	return nil
}

// SetDropRate sends a SetPacketDropRate command to the named drone.
// Out-of-range values are clamped by the drone itself, not here.
func (c *Controller) SetDropRate(id core.NodeId, pdr float64) error {
	ch, ok := c.fleet.DroneCommand(id)
	if !ok {
		return fmt.Errorf("control: %d is not a known drone", id)
	}
	ch <- drone.SetPacketDropRate(pdr)
	return nil
}

// AddLink registers peer as a neighbor of id (drone only), wiring the
// sender endpoint for peer's existing packet channel.
func (c *Controller) AddLink(id, peer core.NodeId) error {
	ch, ok := c.fleet.DroneCommand(id)
	if !ok {
		return fmt.Errorf("control: %d is not a known drone", id)
	}
	peerCh, ok := c.fleet.PacketChan(peer)
	if !ok {
		return fmt.Errorf("control: %d is not a known node", peer)
	}
	ch <- drone.AddSender(peer, peerCh)
	return nil
}

// RemoveLink unregisters peer as a neighbor of id (drone only). Removing
// a nonexistent neighbor is reported by the drone as a non-fatal,
// logged-and-ignored command (spec §7); this call still succeeds from the
// controller's perspective since the command was accepted for delivery.
func (c *Controller) RemoveLink(id, peer core.NodeId) error {
	ch, ok := c.fleet.DroneCommand(id)
	if !ok {
		return fmt.Errorf("control: %d is not a known drone", id)
	}
	ch <- drone.RemoveSender(peer)
	return nil
}

// Spawn starts a new drone with an initially empty neighbor map under ctx,
// the collaborator-level primitive behind the CLI's "spawn <id>" command.
func (c *Controller) Spawn(ctx context.Context, id core.NodeId, pdr float64) {
	c.fleet.SpawnDrone(ctx, id, pdr, 0)
}

// Events exposes the fleet's shared observability stream.
func (c *Controller) Events() <-chan netevent.Event {
	return c.fleet.Bus.Events()
}

// Topology returns the merged topology view for a client or server, for
// the CLI's "topology <node_id>" subcommand. Drones do not maintain a
// topology view (spec §3).
func (c *Controller) Topology(id core.NodeId) (*flood.Topology, error) {
	ep, ok := c.fleet.Endpoints[id]
	if !ok {
		return nil, fmt.Errorf("control: %d is not a known client or server", id)
	}
	return ep.Topology, nil
}
