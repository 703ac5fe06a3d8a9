// Package config parses and validates the TOML fleet description of spec
// §6: drone, client, and server records naming the graph the bootstrap
// wires into channels. Grounded on the original Rust implementation's
// network_initializer/parser.rs three-way cross-check
// (check_parsed_config), translated into an idiomatic Go error-accumulation
// style rather than panic-per-violation.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
)

// DroneConfig is one [[drone]] record.
type DroneConfig struct {
	ID                uint8   `toml:"id"`
	ConnectedNodeIDs  []uint8 `toml:"connected_node_ids"`
	PDR               float64 `toml:"pdr"`
}

// ClientConfig is one [[client]] record.
type ClientConfig struct {
	ID                 uint8   `toml:"id"`
	ConnectedDroneIDs  []uint8 `toml:"connected_drone_ids"`
}

// ServerConfig is one [[server]] record.
type ServerConfig struct {
	ID                 uint8   `toml:"id"`
	ConnectedDroneIDs  []uint8 `toml:"connected_drone_ids"`
}

// Config is the parsed fleet description.
type Config struct {
	Drone  []DroneConfig  `toml:"drone"`
	Client []ClientConfig `toml:"client"`
	Server []ServerConfig `toml:"server"`
}

// Load reads and parses a TOML fleet description from path, then validates
// it. A validation failure rejects the whole file (spec §6).
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s is invalid: %w", path, joinErrors(errs))
	}
	return cfg, nil
}

func joinErrors(errs []error) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}

// Validate enforces spec §6: every referenced id exists, every declared
// edge is reciprocal, clients/servers only link to drones, and ids are
// globally unique. It returns every violation found rather than failing
// fast on the first one.
func Validate(cfg Config) []error {
	var errs []error

	seen := make(map[uint8]string)
	drones := make(map[uint8]DroneConfig)
	for _, d := range cfg.Drone {
		if owner, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Errorf("id %d used by both drone and %s", d.ID, owner))
		}
		seen[d.ID] = "drone"
		drones[d.ID] = d
	}
	for _, c := range cfg.Client {
		if owner, dup := seen[c.ID]; dup {
			errs = append(errs, fmt.Errorf("id %d used by both client and %s", c.ID, owner))
		}
		seen[c.ID] = "client"
	}
	for _, s := range cfg.Server {
		if owner, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("id %d used by both server and %s", s.ID, owner))
		}
		seen[s.ID] = "server"
	}

	for _, d := range cfg.Drone {
		for _, peer := range d.ConnectedNodeIDs {
			role, ok := seen[peer]
			if !ok {
				errs = append(errs, fmt.Errorf("drone %d references unknown node %d", d.ID, peer))
				continue
			}
			if !reciprocates(peer, d.ID, role, drones, cfg) {
				errs = append(errs, fmt.Errorf("edge %d-%d is not reciprocal", d.ID, peer))
			}
		}
	}
	for _, c := range cfg.Client {
		for _, peer := range c.ConnectedDroneIDs {
			role, ok := seen[peer]
			if !ok {
				errs = append(errs, fmt.Errorf("client %d references unknown node %d", c.ID, peer))
				continue
			}
			if role != "drone" {
				errs = append(errs, fmt.Errorf("client %d links to non-drone node %d", c.ID, peer))
				continue
			}
			if !containsUint8(drones[peer].ConnectedNodeIDs, c.ID) {
				errs = append(errs, fmt.Errorf("edge %d-%d is not reciprocal", c.ID, peer))
			}
		}
	}
	for _, s := range cfg.Server {
		for _, peer := range s.ConnectedDroneIDs {
			role, ok := seen[peer]
			if !ok {
				errs = append(errs, fmt.Errorf("server %d references unknown node %d", s.ID, peer))
				continue
			}
			if role != "drone" {
				errs = append(errs, fmt.Errorf("server %d links to non-drone node %d", s.ID, peer))
				continue
			}
			if !containsUint8(drones[peer].ConnectedNodeIDs, s.ID) {
				errs = append(errs, fmt.Errorf("edge %d-%d is not reciprocal", s.ID, peer))
			}
		}
	}

	return errs
}

func reciprocates(peerID, selfID uint8, peerRole string, drones map[uint8]DroneConfig, cfg Config) bool {
	switch peerRole {
	case "drone":
		return containsUint8(drones[peerID].ConnectedNodeIDs, selfID)
	case "client":
		for _, c := range cfg.Client {
			if c.ID == peerID {
				return containsUint8(c.ConnectedDroneIDs, selfID)
			}
		}
	case "server":
		for _, s := range cfg.Server {
			if s.ID == peerID {
				return containsUint8(s.ConnectedDroneIDs, selfID)
			}
		}
	}
	return false
}

func containsUint8(xs []uint8, x uint8) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// NodeId converts a config id (TOML u8) to core.NodeId.
func NodeId(id uint8) core.NodeId { return core.NodeId(id) }
