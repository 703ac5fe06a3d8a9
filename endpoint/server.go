package endpoint

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// NewServer constructs an Endpoint in the server role. Servers currently
// accept no commands (spec §4.3); any command delivered to one is logged
// and ignored by the shared handleCommand path.
func NewServer(cfg Config) *Endpoint {
	cfg.Kind = core.KindServer
	return New(cfg)
}
