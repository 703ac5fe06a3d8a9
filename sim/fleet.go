// Package sim is the bootstrap collaborator spec §6 names: it never
// implements routing or flood semantics itself, only constructs channels
// and node actors and wires them together from a parsed config.Config.
// Grounded on the teacher's device/router.Router.AddTransport wiring
// pattern and core/connection.Manager's per-actor ownership model.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/config"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/drone"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/endpoint"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/internal/logging"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/internal/metrics"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/netevent"
)

// DefaultChannelCapacity models spec §5's "unbounded buffering" as a large
// bounded channel with a non-blocking send, so a node never blocks inside
// its own actor loop; overflow is surfaced as a send error and counted,
// never retried.
const DefaultChannelCapacity = 256

// DefaultEventBusCapacity sizes the shared observability channel.
const DefaultEventBusCapacity = 1024

// Fleet owns every constructed node, its channels, and the shared
// collaborators (event bus, metrics registry, logger).
type Fleet struct {
	Drones    map[core.NodeId]*drone.Drone
	Endpoints map[core.NodeId]*endpoint.Endpoint

	packetChans   map[core.NodeId]chan *core.Packet
	droneCmdChans map[core.NodeId]chan drone.Command
	epCmdChans    map[core.NodeId]chan endpoint.Command

	Bus     *netevent.Bus
	Metrics *metrics.Registry
	promReg *prometheus.Registry
	log     *slog.Logger

	mu sync.Mutex
}

// Options configures Bootstrap.
type Options struct {
	Logger          *slog.Logger
	ChannelCapacity int
}

// Bootstrap constructs a Fleet from cfg: a packet channel, a command
// channel, a send endpoint to the shared event bus, and a neighbor sender
// map for every node (spec §6's four channel kinds), entirely in-process.
func Bootstrap(cfg config.Config, opts Options) (*Fleet, error) {
	if opts.ChannelCapacity <= 0 {
		opts.ChannelCapacity = DefaultChannelCapacity
	}
	log := opts.Logger
	if log == nil {
		log = logging.New("info", "text")
	}

	promReg := prometheus.NewRegistry()
	f := &Fleet{
		Drones:        make(map[core.NodeId]*drone.Drone),
		Endpoints:     make(map[core.NodeId]*endpoint.Endpoint),
		packetChans:   make(map[core.NodeId]chan *core.Packet),
		droneCmdChans: make(map[core.NodeId]chan drone.Command),
		epCmdChans:    make(map[core.NodeId]chan endpoint.Command),
		Bus:           netevent.NewBus(DefaultEventBusCapacity),
		Metrics:       metrics.NewRegistry(promReg),
		promReg:       promReg,
		log:           log,
	}

	for _, d := range cfg.Drone {
		id := config.NodeId(d.ID)
		f.packetChans[id] = make(chan *core.Packet, opts.ChannelCapacity)
		f.droneCmdChans[id] = make(chan drone.Command, opts.ChannelCapacity)
	}
	for _, c := range cfg.Client {
		id := config.NodeId(c.ID)
		f.packetChans[id] = make(chan *core.Packet, opts.ChannelCapacity)
		f.epCmdChans[id] = make(chan endpoint.Command, opts.ChannelCapacity)
	}
	for _, s := range cfg.Server {
		id := config.NodeId(s.ID)
		f.packetChans[id] = make(chan *core.Packet, opts.ChannelCapacity)
		f.epCmdChans[id] = make(chan endpoint.Command, opts.ChannelCapacity)
	}

	for _, d := range cfg.Drone {
		id := config.NodeId(d.ID)
		neighbors := make(map[core.NodeId]chan<- *core.Packet, len(d.ConnectedNodeIDs))
		for _, peer := range d.ConnectedNodeIDs {
			pid := config.NodeId(peer)
			ch, ok := f.packetChans[pid]
			if !ok {
				return nil, fmt.Errorf("sim: drone %d references unknown neighbor %d", d.ID, peer)
			}
			neighbors[pid] = ch
		}
		f.Drones[id] = drone.New(drone.Config{
			ID:          id,
			PDR:         d.PDR,
			Neighbors:   neighbors,
			PacketChan:  f.packetChans[id],
			CommandChan: f.droneCmdChans[id],
			Bus:         f.Bus,
			Metrics:     f.Metrics,
			Logger:      f.log,
			Rand:        rand.New(rand.NewSource(int64(id) + 1)),
		})
	}
	for _, c := range cfg.Client {
		id := config.NodeId(c.ID)
		neighbors, err := f.neighborSet(c.ConnectedDroneIDs, "client", c.ID)
		if err != nil {
			return nil, err
		}
		f.Endpoints[id] = endpoint.NewClient(endpoint.Config{
			ID:          id,
			Neighbors:   neighbors,
			PacketChan:  f.packetChans[id],
			CommandChan: f.epCmdChans[id],
			Bus:         f.Bus,
			Metrics:     f.Metrics,
			Logger:      f.log,
			Rand:        rand.New(rand.NewSource(int64(id) + 1)),
		})
	}
	for _, s := range cfg.Server {
		id := config.NodeId(s.ID)
		neighbors, err := f.neighborSet(s.ConnectedDroneIDs, "server", s.ID)
		if err != nil {
			return nil, err
		}
		f.Endpoints[id] = endpoint.NewServer(endpoint.Config{
			ID:          id,
			Neighbors:   neighbors,
			PacketChan:  f.packetChans[id],
			CommandChan: f.epCmdChans[id],
			Bus:         f.Bus,
			Metrics:     f.Metrics,
			Logger:      f.log,
			Rand:        rand.New(rand.NewSource(int64(id) + 1)),
		})
	}

	return f, nil
}

func (f *Fleet) neighborSet(ids []uint8, role string, selfID uint8) (map[core.NodeId]chan<- *core.Packet, error) {
	neighbors := make(map[core.NodeId]chan<- *core.Packet, len(ids))
	for _, peer := range ids {
		pid := config.NodeId(peer)
		ch, ok := f.packetChans[pid]
		if !ok {
			return nil, fmt.Errorf("sim: %s %d references unknown neighbor %d", role, selfID, peer)
		}
		neighbors[pid] = ch
	}
	return neighbors, nil
}

// Run starts every node's actor goroutine and blocks until all of them
// have returned; it always returns nil. Drones run until a Crash command
// drains them or ctx is cancelled; endpoints run until ctx cancellation.
func (f *Fleet) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range f.Drones {
		d := d
		g.Go(func() error {
			d.Run(ctx)
			return nil
		})
	}
	for _, e := range f.Endpoints {
		e := e
		g.Go(func() error {
			e.Run(ctx)
			return nil
		})
	}
	return g.Wait()
}

// DroneCommand returns the command send endpoint for a drone, used by
// control.Controller.
func (f *Fleet) DroneCommand(id core.NodeId) (chan<- drone.Command, bool) {
	ch, ok := f.droneCmdChans[id]
	return ch, ok
}

// EndpointCommand returns the command send endpoint for a client/server.
func (f *Fleet) EndpointCommand(id core.NodeId) (chan<- endpoint.Command, bool) {
	ch, ok := f.epCmdChans[id]
	return ch, ok
}

// PacketChan returns the inbound packet channel for id, used to deliver
// traffic originated outside the fleet (e.g. a test harness) and by
// Controller.AddLink to wire a neighbor's sender endpoint.
func (f *Fleet) PacketChan(id core.NodeId) (chan *core.Packet, bool) {
	ch, ok := f.packetChans[id]
	return ch, ok
}

// SpawnDrone adds a new drone to a running fleet with an initially empty
// neighbor map, registers its channels, and starts its goroutine under
// ctx. This realizes the "spawn <id> <type>" CLI primitive the original
// implementation's simulation_controller exposes, which spec §6 leaves as
// a collaborator plumbing detail — implemented here on top of the
// existing AddLink/RemoveLink command primitives.
func (f *Fleet) SpawnDrone(ctx context.Context, id core.NodeId, pdr float64, capacity int) *drone.Drone {
	f.mu.Lock()
	defer f.mu.Unlock()
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	pktCh := make(chan *core.Packet, capacity)
	cmdCh := make(chan drone.Command, capacity)
	f.packetChans[id] = pktCh
	f.droneCmdChans[id] = cmdCh

	d := drone.New(drone.Config{
		ID:          id,
		PDR:         pdr,
		Neighbors:   map[core.NodeId]chan<- *core.Packet{},
		PacketChan:  pktCh,
		CommandChan: cmdCh,
		Bus:         f.Bus,
		Metrics:     f.Metrics,
		Logger:      f.log,
		Rand:        rand.New(rand.NewSource(int64(id) + 1)),
	})
	f.Drones[id] = d
	go d.Run(ctx)
	return d
}

// ServeMetrics starts a /metrics HTTP endpoint on addr, grounded on
// postalsys-Muti-Metroo's internal/health dedicated status server pattern.
// It blocks until ctx is cancelled.
func (f *Fleet) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(f.promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
