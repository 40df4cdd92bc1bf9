package bus

import "fmt"

// MessageTooLargeError is returned by Send when payload exceeds the bus's
// configured max message size.
type MessageTooLargeError struct {
	Size, Limit int
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("bus: message size %d exceeds limit %d", e.Size, e.Limit)
}

// BusFullError is returned when a destination's queue is still full after
// the block-with-timeout window elapses.
type BusFullError struct {
	Destination string
}

func (e *BusFullError) Error() string {
	return fmt.Sprintf("bus: destination %s queue full", e.Destination)
}

// RateLimitedError is returned when a source exceeds its configured
// max_messages_per_second and the wait deadline elapses before a token
// frees up.
type RateLimitedError struct {
	Source string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("bus: source %s exceeded its message rate limit", e.Source)
}
