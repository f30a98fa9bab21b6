package config

import "time"

// Session database settings
const (
	StoreBusyTimeout = 5 * time.Second
	StorePingTimeout = 5 * time.Second
)

// Send retry backoff: first retry waits SendRetryBaseDelay, doubling per
// attempt up to SendRetryMaxDelay.
const (
	SendRetryBaseDelay = 500 * time.Millisecond
	SendRetryMaxDelay  = 4 * time.Second
)

// Stub server timeouts
const (
	StubReadTimeout     = 15 * time.Second
	StubWriteTimeout    = 15 * time.Second
	StubIdleTimeout     = 120 * time.Second
	StubShutdownTimeout = 10 * time.Second
)
