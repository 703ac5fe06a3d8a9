//go:build !netsimdebug

package core

// DebugAssert is a no-op in release builds. Programmer-error conditions
// (spec §7: e.g. building an Ack over a non-fragment packet) are expected
// to never occur; this build silently tolerates the caller's mistake by
// doing nothing, matching §7's "replaced by typed errors in production."
func DebugAssert(cond bool, msg string) {}
