package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/mash-protocol/wifiprov/pkg/version"
)

// Service constants.
const (
	// ServiceType is the DNS-SD service type of the provisioning endpoint.
	ServiceType = "_wifiprov._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the provisioning HTTP endpoint port.
	DefaultPort = 80

	// MaxInstanceNameLen is the DNS label length limit.
	MaxInstanceNameLen = 63

	// ProtocolVersion is advertised in the ver TXT record.
	ProtocolVersion = version.Current
)

// Discovery errors.
var (
	ErrNotAdvertising = errors.New("not advertising")
	ErrInvalidInfo    = errors.New("invalid service info")
)

// ServiceInfo describes the advertised provisioning endpoint.
type ServiceInfo struct {
	// InstanceName is the service name (AP network name).
	InstanceName string

	// Port is the endpoint port (DefaultPort when zero).
	Port uint16

	// SecurityLevel is the negotiated session security level.
	SecurityLevel uint8

	// PoPRequired is true when a proof-of-possession must be presented.
	PoPRequired bool
}

// Advertiser publishes the provisioning endpoint.
type Advertiser interface {
	// Advertise starts (or replaces) the advertisement.
	Advertise(ctx context.Context, info ServiceInfo) error

	// Stop withdraws the advertisement. Stopping an idle advertiser is a no-op.
	Stop() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: 120 * time.Second,
	}
}
