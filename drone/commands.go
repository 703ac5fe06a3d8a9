package drone

import "github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"

// CommandKind discriminates the control-plane command union spec §4.1
// requires every drone to accept on its command channel.
type CommandKind uint8

const (
	CmdAddSender CommandKind = iota
	CmdRemoveSender
	CmdSetPacketDropRate
	CmdCrash
)

// Command is a forward-compatible tagged union: an unrecognized CommandKind
// is logged and ignored, never treated as fatal, matching spec §4.3's
// requirement for the client command enumeration (the same convention is
// extended here to drones for consistency).
type Command struct {
	Kind CommandKind

	// AddSender / RemoveSender
	NeighborID core.NodeId
	Sender     chan<- *core.Packet // only meaningful for CmdAddSender

	// SetPacketDropRate
	PDR float64
}

// AddSender builds an AddSender command. Idempotent at the receiver: if the
// key already exists, the latest sender wins.
func AddSender(id core.NodeId, sender chan<- *core.Packet) Command {
	return Command{Kind: CmdAddSender, NeighborID: id, Sender: sender}
}

// RemoveSender builds a RemoveSender command.
func RemoveSender(id core.NodeId) Command {
	return Command{Kind: CmdRemoveSender, NeighborID: id}
}

// SetPacketDropRate builds a SetPacketDropRate command. Out-of-range values
// are clamped by the receiver, not by this constructor.
func SetPacketDropRate(pdr float64) Command {
	return Command{Kind: CmdSetPacketDropRate, PDR: pdr}
}

// Crash builds a Crash command.
func Crash() Command {
	return Command{Kind: CmdCrash}
}
