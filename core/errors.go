package core

import "errors"

var (
	// ErrNoCurrentHop is returned when a header's HopIndex does not point at
	// a valid position in Hops — a malformed packet per spec §4.1's failure
	// semantics. Callers drop such a packet; drone.handlePacket also logs it.
	ErrNoCurrentHop = errors.New("core: hop_index does not address a valid hop")

	// ErrSendFailed wraps a non-blocking channel send that found no room.
	// It is always treated as transient packet loss for that destination.
	ErrSendFailed = errors.New("core: send to neighbor channel failed")
)
