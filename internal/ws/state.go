package ws

import (
	"fmt"
	"sync/atomic"
)

// ConnState is the lifecycle position of a Conn. A Conn never reconnects, so
// the states only move forward.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	// StateClosed is reached when either side closes the socket.
	StateClosed
)

func (s ConnState) String() string {
	names := [...]string{
		"connecting",
		"connected",
		"closed",
	}
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
	return names[s]
}

// State is a ConnState safe for concurrent use.
type State struct {
	state atomic.Int32
}

func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}
