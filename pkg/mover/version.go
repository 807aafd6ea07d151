package mover

// Version of the daemon, overridden at build time with -ldflags "-X github.com/viamover/moverd/pkg/mover.Version=..."
var Version = "0.3.0"
