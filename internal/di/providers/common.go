package providers

import "time"

const (
	// storePingTimeout bounds the reachability check run when the store opens.
	storePingTimeout = 5 * time.Second
	// shutdownTimeout bounds how long in-flight requests may drain on shutdown.
	shutdownTimeout = 30 * time.Second
)
