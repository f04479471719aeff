package dht

import "errors"

// Transient read errors. None of them is fatal: the caller skips the sample
// and tries again next period.
var (
	ErrChecksum   = errors.New("dht: checksum mismatch")
	ErrTimeout    = errors.New("dht: timing violation")
	ErrNoResponse = errors.New("dht: no response")
	// ErrOutOfRange marks a frame that passed its checksum but carries
	// values the sensor cannot produce.
	ErrOutOfRange = errors.New("dht: value out of range")
)
