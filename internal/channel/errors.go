package channel

import "errors"

// Sentinel errors for channel operations.
var (
	// ErrNoInbox indicates a channel's inbox callback has not been set.
	ErrNoInbox = errors.New("channel: inbox not set")

	// ErrNotSupported indicates the channel does not implement an optional
	// capability such as callback answering or keyboard editing.
	ErrNotSupported = errors.New("channel: operation not supported")
)
