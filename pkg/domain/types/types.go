package types

// Version is the service version, overridden at build time via ldflags
var Version = "dev"

// ServiceName is used in health responses and check-run names
const ServiceName = "mooring"

// HTTP header names used by the GitHub webhook delivery
const (
	HeaderSignature = "X-Hub-Signature-256"
	HeaderEvent     = "X-GitHub-Event"
	HeaderDelivery  = "X-GitHub-Delivery"
)
