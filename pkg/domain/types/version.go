package types

// ServiceName is the canonical name of this agent.
const ServiceName = "stevedore"

// Version is overridden at build time via -ldflags.
var Version = "dev"
