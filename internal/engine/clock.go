package engine

import "time"

// Clock supplies the default as-of bound for queries that omit "until".
//
// Timestamps are Unix microseconds, the unit writers stamp events with.
type Clock interface {
	Now() int64
}

// WallClock reads the system clock.
//
// Thread-safety: WallClock is stateless and safe for concurrent use.
type WallClock struct{}

// Now returns the current time in Unix microseconds.
func (WallClock) Now() int64 {
	return time.Now().UnixMicro()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// Now calls f.
func (f ClockFunc) Now() int64 {
	return f()
}
