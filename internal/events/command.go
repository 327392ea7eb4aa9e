package events

import "time"

// CommandStart is emitted before a command is handed to a dispatcher.
type CommandStart struct {
	Command   string
	RequestID string
	Provider  string
}

// CommandFinish is emitted once the dispatcher returned.
type CommandFinish struct {
	Command   string
	RequestID string
	Provider  string
	Accepted  bool
	Err       error
	Duration  time.Duration
}
