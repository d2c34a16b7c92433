package session

import "errors"

// Collector errors.
var (
	ErrCollectorUsed = errors.New("collector has already waited")
	ErrKeyInUse      = errors.New("correlation id already has a waiter")
)
