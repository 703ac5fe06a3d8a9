// Package testutil collects small fixtures shared by this module's table
// and scenario tests: buffered channel pairs standing in for the fleet's
// wiring, a deterministic sequence generator for session/flood ids, and a
// receive-with-timeout helper so a stuck actor fails a test instead of
// hanging the suite.
package testutil

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
)

// DefaultCapacity is the channel buffer size used by fixtures below, large
// enough that none of this module's scenario tests observe a full channel.
const DefaultCapacity = 16

// NewPacketChan creates a buffered packet channel pair usable both as a
// node's own PacketChan and, through its send half, as a neighbor's sender.
func NewPacketChan() chan *core.Packet {
	return make(chan *core.Packet, DefaultCapacity)
}

// Sequence returns a closure producing 1, 2, 3, ... on each call — a
// deterministic stand-in for a node's session/flood-id generator so
// assertions can rely on a known value instead of a random one.
func Sequence() func() uint64 {
	var n uint64
	return func() uint64 {
		n++
		return n
	}
}

// Recv waits up to d for a value on ch, failing t if nothing arrives.
func Recv(t *testing.T, ch <-chan *core.Packet, d time.Duration) *core.Packet {
	t.Helper()
	select {
	case pkt := <-ch:
		return pkt
	case <-time.After(d):
		t.Fatalf("testutil: timed out waiting for a packet")
		return nil
	}
}

// RecvNone asserts nothing arrives on ch within d, used to confirm a drone
// didn't forward a packet it should have dropped or NACKed instead.
func RecvNone(t *testing.T, ch <-chan *core.Packet, d time.Duration) {
	t.Helper()
	select {
	case pkt := <-ch:
		t.Fatalf("testutil: expected no packet, got %+v", pkt)
	case <-time.After(d):
	}
}

// ShortWait is the default timeout used by Recv/RecvNone in this module's
// tests: long enough for a scheduled goroutine to run, short enough that a
// genuinely stuck test fails fast.
const ShortWait = 200 * time.Millisecond

// CaseLogger collects everything written to it in memory, for integration
// tests that want to assert on a scenario's log output (or dump it on
// failure) without writing to the filesystem.
type CaseLogger struct {
	mu    sync.Mutex
	lines []string
	buf   bytes.Buffer
}

// Write implements io.Writer, splitting input into lines for later
// inspection via Lines.
func (c *CaseLogger) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Write(p)
	for {
		line, err := c.buf.ReadString('\n')
		if err != nil {
			// Incomplete final line: put it back for the next Write.
			c.buf.Reset()
			c.buf.WriteString(line)
			break
		}
		c.lines = append(c.lines, line[:len(line)-1])
	}
	return len(p), nil
}

// Lines returns every complete line written so far.
func (c *CaseLogger) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}
