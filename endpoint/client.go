package endpoint

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// NewClient constructs an Endpoint in the client role. Clients accept the
// GetFilesList command in addition to the shared packet-handling behavior.
func NewClient(cfg Config) *Endpoint {
	cfg.Kind = core.KindClient
	return New(cfg)
}
