package provision

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/wifiprov/pkg/event"
	"github.com/mash-protocol/wifiprov/pkg/eventloop"
	"github.com/mash-protocol/wifiprov/pkg/log"
	"github.com/mash-protocol/wifiprov/pkg/metrics"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

// Defaults.
const (
	// DefaultServiceName is advertised when the request leaves ServiceName empty.
	DefaultServiceName = "PROV_TOIT"

	// DefaultGraceWindow is how long the manager keeps the channel open
	// after success so the companion can read the result.
	DefaultGraceWindow = 5 * time.Second

	// DefaultTimeout bounds the wait for an outcome.
	DefaultTimeout = 5 * time.Minute
)

// Provisioning errors.
var (
	ErrStoreInit          = errors.New("credential store initialization failed")
	ErrUnconfiguredScheme = errors.New("transport scheme not configured")
	ErrInvalidSecurity    = errors.New("invalid security level")
	ErrSessionActive      = errors.New("provisioning session already active")
	ErrInvalidConfig      = errors.New("invalid provisioner configuration")
)

// Outcome is the result of a provisioning session.
type Outcome uint8

const (
	// OutcomePending - no terminal event observed yet.
	OutcomePending Outcome = iota

	// OutcomeSucceeded - the station obtained an IP address.
	OutcomeSucceeded

	// OutcomeFailed - credentials were rejected or the connection failed.
	OutcomeFailed

	// OutcomeTimedOut - no terminal event arrived before the deadline.
	OutcomeTimedOut
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeSucceeded:
		return "SUCCEEDED"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the outcome ends a session.
func (o Outcome) Terminal() bool {
	return o != OutcomePending
}

// Request holds the caller's provisioning parameters.
type Request struct {
	Scheme   scheme.Type
	Security security.Level

	// ProofOfPossession is the shared secret for Security1. Empty means none.
	ProofOfPossession string

	// ServiceName is the advertised name. Empty selects DefaultServiceName.
	ServiceName string

	// ServiceKey protects the SoftAP network. Empty means an open AP.
	// Ignored for BLE.
	ServiceKey string
}

// StartParams are the normalized parameters handed to Manager.Start.
// Nil pointers mean absent.
type StartParams struct {
	Security    security.Level
	PoP         *string
	ServiceName string
	ServiceKey  *string
}

// Store is the persistent credential store.
type Store interface {
	Open() error
	Erase() error
}

// Radio is the station radio stack.
type Radio interface {
	InitInterfaces(needsAP bool) error
	ApplyStationConfig(ssid, password string) error
	Connect() error
}

// EventBus delivers events to registered handlers.
type EventBus interface {
	Register(ns event.Namespace, h eventloop.Handler) (unregister func(), err error)
}

// Manager is the provisioning manager service.
type Manager interface {
	Init(cfg scheme.Config) error
	DisableAutoStop(grace time.Duration) error
	Start(params StartParams) error
	Deinit() error
}

// ServiceUUIDBinder is implemented by managers that accept a BLE service
// UUID after Init.
type ServiceUUIDBinder interface {
	SetServiceUUID(id uuid.UUID) error
}

// provisionedReporter is implemented by stores that can tell whether station
// credentials are already stored.
type provisionedReporter interface {
	IsProvisioned() (bool, error)
}

// Config configures a Provisioner.
type Config struct {
	Store   Store
	Radio   Radio
	Bus     EventBus
	Manager Manager

	// GraceWindow is passed to Manager.DisableAutoStop.
	GraceWindow time.Duration

	// Timeout bounds Begin's wait for an outcome. Must be positive.
	Timeout time.Duration

	// Logger is the optional logger for operational output.
	Logger *slog.Logger

	// ProtocolLogger receives capture events (optional).
	ProtocolLogger log.Logger

	// Metrics records session metrics (optional).
	Metrics *metrics.Recorder
}

// DefaultConfig returns a Config with default timing. Collaborators must be
// set by the caller.
func DefaultConfig() Config {
	return Config{
		GraceWindow: DefaultGraceWindow,
		Timeout:     DefaultTimeout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Store == nil:
		return fmt.Errorf("%w: store is required", ErrInvalidConfig)
	case c.Radio == nil:
		return fmt.Errorf("%w: radio is required", ErrInvalidConfig)
	case c.Bus == nil:
		return fmt.Errorf("%w: event bus is required", ErrInvalidConfig)
	case c.Manager == nil:
		return fmt.Errorf("%w: manager is required", ErrInvalidConfig)
	case c.GraceWindow < 0:
		return fmt.Errorf("%w: negative grace window", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
