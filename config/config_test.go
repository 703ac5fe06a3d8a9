package config

import "testing"

func validTriangle() Config {
	return Config{
		Drone: []DroneConfig{
			{ID: 1, ConnectedNodeIDs: []uint8{2, 10}, PDR: 0.1},
			{ID: 2, ConnectedNodeIDs: []uint8{1, 20}, PDR: 0.1},
		},
		Client: []ClientConfig{{ID: 10, ConnectedDroneIDs: []uint8{1}}},
		Server: []ServerConfig{{ID: 20, ConnectedDroneIDs: []uint8{2}}},
	}
}

func TestValidateAcceptsAReciprocalGraph(t *testing.T) {
	if errs := Validate(validTriangle()); len(errs) != 0 {
		t.Fatalf("Validate returned unexpected errors: %v", errs)
	}
}

func TestValidateRejectsDuplicateIds(t *testing.T) {
	cfg := validTriangle()
	cfg.Server[0].ID = 10 // collides with the client
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatalf("expected a duplicate-id error")
	}
}

func TestValidateRejectsNonReciprocalEdge(t *testing.T) {
	cfg := validTriangle()
	cfg.Drone[1].ConnectedNodeIDs = []uint8{20} // drops the 2->1 edge
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatalf("expected a non-reciprocal edge error")
	}
}

func TestValidateRejectsClientToClientLink(t *testing.T) {
	cfg := validTriangle()
	cfg.Client = append(cfg.Client, ClientConfig{ID: 11, ConnectedDroneIDs: []uint8{10}})
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatalf("expected an error: clients may only link to drones")
	}
}

func TestValidateRejectsUnknownNeighbor(t *testing.T) {
	cfg := validTriangle()
	cfg.Client[0].ConnectedDroneIDs = []uint8{99}
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatalf("expected an unknown-neighbor error")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/does-not-exist.toml"); err == nil {
		t.Fatalf("Load should fail for a missing file")
	}
}
