package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/wifiprov/pkg/discovery"
	"github.com/mash-protocol/wifiprov/pkg/event"
	"github.com/mash-protocol/wifiprov/pkg/eventloop"
	"github.com/mash-protocol/wifiprov/pkg/log"
	"github.com/mash-protocol/wifiprov/pkg/provision"
	"github.com/mash-protocol/wifiprov/pkg/radio"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

// State is the manager lifecycle state.
type State uint8

const (
	// StateIdle - not initialized.
	StateIdle State = iota

	// StateInitialized - Init done, not started.
	StateInitialized

	// StateRunning - accepting companion connections.
	StateRunning

	// StateStopping - the grace window elapsed and End was posted.
	StateStopping

	// StateStopped - deinitialized.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInitialized:
		return "INITIALIZED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Manager errors.
var (
	ErrInvalidState     = errors.New("invalid manager state")
	ErrNotRunning       = errors.New("provisioning manager not running")
	ErrInvalidGrace     = errors.New("invalid grace window")
	ErrSchemeMismatch   = errors.New("operation not supported by scheme")
	ErrMalformedPayload = errors.New("malformed config payload")
	ErrMissingConfig    = errors.New("missing manager dependency")
)

// Bus is the event loop the service posts to and watches.
type Bus interface {
	Register(ns event.Namespace, h eventloop.Handler) (func(), error)
	Post(ev event.Event) error
}

// StationRadio is the part of the radio the service drives.
type StationRadio interface {
	StartStation() error
	RestartStation() error
}

// Config configures a Service.
type Config struct {
	Bus   Bus
	Radio StationRadio

	// Advertiser publishes the SoftAP endpoint (optional).
	Advertiser discovery.Advertiser

	// Port is the advertised endpoint port.
	Port uint16

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger receives manager state transitions (optional).
	ProtocolLogger log.Logger
}

// Service is the reference provisioning manager.
type Service struct {
	mu sync.Mutex

	bus        Bus
	radio      StationRadio
	advertiser discovery.Advertiser
	port       uint16
	logger     *slog.Logger
	plog       log.Logger

	state       State
	scheme      scheme.Config
	serviceUUID uuid.UUID
	autoStopOff bool
	grace       time.Duration
	params      provision.StartParams

	accepted    bool
	advertising bool
	btReleased  bool
	stopTimer   *time.Timer
	unwatch     []func()

	onStateChange func(old, new State)
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("%w: bus", ErrMissingConfig)
	}
	if cfg.Radio == nil {
		return nil, fmt.Errorf("%w: radio", ErrMissingConfig)
	}
	plog := cfg.ProtocolLogger
	if plog == nil {
		plog = log.NoopLogger{}
	}
	port := cfg.Port
	if port == 0 {
		port = discovery.DefaultPort
	}
	return &Service{
		bus:        cfg.Bus,
		radio:      cfg.Radio,
		advertiser: cfg.Advertiser,
		port:       port,
		logger:     cfg.Logger,
		plog:       plog,
	}, nil
}

// OnStateChange sets a callback for state transitions. The callback runs
// without the service lock held.
func (s *Service) OnStateChange(fn func(old, new State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ServiceName returns the name passed to Start.
func (s *Service) ServiceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.ServiceName
}

// Security returns the session security level passed to Start.
func (s *Service) Security() security.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Security
}

// ServiceUUID returns the bound BLE service UUID (zero if none).
func (s *Service) ServiceUUID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceUUID
}

// BTReleased reports whether Bluetooth controller memory was released.
func (s *Service) BTReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.btReleased
}

// Advertising reports whether the SoftAP endpoint is advertised.
func (s *Service) Advertising() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advertising
}

// Init prepares the service for a scheme.
func (s *Service) Init(cfg scheme.Config) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateStopped {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: init in state %s", ErrInvalidState, st)
	}

	s.scheme = cfg
	s.serviceUUID = uuid.Nil
	if cfg.ServiceUUID != nil {
		s.serviceUUID = *cfg.ServiceUUID
	}
	s.autoStopOff = false
	s.grace = 0
	s.params = provision.StartParams{}
	s.accepted = false
	s.btReleased = false
	old := s.setStateLocked(StateInitialized)
	cb := s.onStateChange
	s.mu.Unlock()

	s.notify(cb, old, StateInitialized, "init "+cfg.Type.String())
	return nil
}

// SetServiceUUID overrides the BLE GATT service UUID before Start.
func (s *Service) SetServiceUUID(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return fmt.Errorf("%w: set uuid in state %s", ErrInvalidState, s.state)
	}
	if s.scheme.Type != scheme.BLE {
		return fmt.Errorf("%w: service uuid on %s", ErrSchemeMismatch, s.scheme.Type)
	}
	s.serviceUUID = id
	return nil
}

// DisableAutoStop keeps the channel open for grace after success.
func (s *Service) DisableAutoStop(grace time.Duration) error {
	if grace < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGrace, grace)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return fmt.Errorf("%w: disable auto stop in state %s", ErrInvalidState, s.state)
	}
	s.autoStopOff = true
	s.grace = grace
	return nil
}

// Start begins accepting companion connections.
func (s *Service) Start(params provision.StartParams) error {
	if !params.Security.Valid() {
		return fmt.Errorf("%w: %d", security.ErrInvalidLevel, params.Security)
	}

	s.mu.Lock()
	if s.state != StateInitialized {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, st)
	}
	s.params = params
	needsAP := s.scheme.NeedsAP
	schemeType := s.scheme.Type
	s.mu.Unlock()

	unwatch, err := s.watch()
	if err != nil {
		return err
	}

	if needsAP && s.advertiser != nil {
		info := discovery.ServiceInfo{
			InstanceName:  params.ServiceName,
			Port:          s.port,
			SecurityLevel: uint8(params.Security),
			PoPRequired:   params.PoP != nil,
		}
		if err := s.advertiser.Advertise(context.Background(), info); err != nil {
			for _, u := range unwatch {
				u()
			}
			return fmt.Errorf("advertise provisioning service: %w", err)
		}
	}

	s.mu.Lock()
	s.unwatch = unwatch
	s.advertising = needsAP && s.advertiser != nil
	old := s.setStateLocked(StateRunning)
	cb := s.onStateChange
	s.mu.Unlock()

	s.notify(cb, old, StateRunning, "start")
	s.debugLog("provisioning service started",
		"scheme", schemeType.String(),
		"name", params.ServiceName,
		"security", params.Security.String())

	if err := s.bus.Post(event.ProtocolEvent{Kind: event.ProtocolStarted}); err != nil {
		s.debugLog("post start event failed", "error", err)
	}
	if err := s.radio.StartStation(); err != nil {
		return fmt.Errorf("start station: %w", err)
	}
	return nil
}

// watch subscribes to driver and IP events.
func (s *Service) watch() ([]func(), error) {
	var unwatch []func()

	u, err := s.bus.Register(event.NamespaceWiFi, s.handleDriver)
	if err != nil {
		return nil, fmt.Errorf("watch wifi events: %w", err)
	}
	unwatch = append(unwatch, u)

	u, err = s.bus.Register(event.NamespaceIP, s.handleIP)
	if err != nil {
		unwatch[0]()
		return nil, fmt.Errorf("watch ip events: %w", err)
	}
	return append(unwatch, u), nil
}

// Deinit stops the service and releases its resources.
func (s *Service) Deinit() error {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}

	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
	unwatch := s.unwatch
	s.unwatch = nil
	advertising := s.advertising
	s.advertising = false
	if s.scheme.ReleaseBTOnEnd {
		s.btReleased = true
	}
	old := s.setStateLocked(StateStopped)
	cb := s.onStateChange
	s.mu.Unlock()

	for _, u := range unwatch {
		u()
	}

	var err error
	if advertising {
		err = s.advertiser.Stop()
	}

	s.notify(cb, old, StateStopped, "deinit")
	s.debugLog("provisioning service stopped", "bt_released", s.BTReleased())
	return err
}

// Connect opens a companion channel.
func (s *Service) Connect() (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return nil, ErrNotRunning
	}

	var pop []byte
	if s.params.PoP != nil {
		pop = []byte(*s.params.PoP)
	}
	dev, err := security.NewDeviceSession(s.params.Security, pop)
	if err != nil {
		return nil, err
	}
	return &Channel{service: s, session: dev}, nil
}

// acceptConfig validates a decoded configuration and posts the protocol
// events for it.
func (s *Service) acceptConfig(req ConfigRequest) ConfigStatus {
	if s.State() != StateRunning {
		return StatusNotRunning
	}

	s.post(event.ProtocolEvent{
		Kind:     event.CredReceived,
		SSID:     req.SSID,
		Password: req.Passphrase,
	})

	if req.SSID == "" || len(req.SSID) > radio.MaxSSIDLen || len(req.Passphrase) > radio.MaxPasswordLen {
		s.post(event.ProtocolEvent{Kind: event.CredFailed, Reason: event.ReasonAuthError})
		return StatusInvalid
	}

	s.mu.Lock()
	s.accepted = true
	s.mu.Unlock()

	s.post(event.ProtocolEvent{Kind: event.CredSucceeded})
	if err := s.radio.RestartStation(); err != nil {
		s.debugLog("restart station failed", "error", err)
	}
	return StatusApplied
}

// handshakeFailed reports a failed companion handshake.
func (s *Service) handshakeFailed(err error) {
	s.debugLog("companion handshake failed", "error", err)
	s.post(event.ProtocolEvent{Kind: event.CredFailed, Reason: event.ReasonHandshake})
}

func (s *Service) handleDriver(ev event.Event) {
	de, ok := ev.(event.DriverEvent)
	if !ok || de.Kind != event.DriverStationDisconnected {
		return
	}

	s.mu.Lock()
	report := s.state == StateRunning && s.accepted
	s.mu.Unlock()
	if !report {
		return
	}

	switch de.Reason {
	case event.DisconnectAuthFail:
		s.post(event.ProtocolEvent{Kind: event.CredFailed, Reason: event.ReasonAuthError})
	case event.DisconnectNoAPFound:
		s.post(event.ProtocolEvent{Kind: event.CredFailed, Reason: event.ReasonAPNotFound})
	}
}

func (s *Service) handleIP(ev event.Event) {
	ie, ok := ev.(event.IPEvent)
	if !ok || ie.Kind != event.IPGotIP {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || !s.accepted || s.stopTimer != nil {
		return
	}

	delay := time.Duration(0)
	if s.autoStopOff {
		delay = s.grace
	}
	s.stopTimer = time.AfterFunc(delay, s.autoStop)
}

// autoStop posts End and stops the service once the grace window elapsed.
func (s *Service) autoStop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.stopTimer = nil
	old := s.setStateLocked(StateStopping)
	cb := s.onStateChange
	s.mu.Unlock()

	s.notify(cb, old, StateStopping, "grace window elapsed")
	s.post(event.ProtocolEvent{Kind: event.End})

	if err := s.Deinit(); err != nil {
		s.debugLog("auto stop failed", "error", err)
	}
}

func (s *Service) post(ev event.Event) {
	if err := s.bus.Post(ev); err != nil {
		s.debugLog("post event failed", "event", ev.ID(), "error", err)
	}
}

func (s *Service) schemeType() scheme.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheme.Type
}

// setStateLocked changes the state and returns the old one. Caller holds mu.
func (s *Service) setStateLocked(st State) State {
	old := s.state
	s.state = st
	return old
}

func (s *Service) notify(cb func(old, new State), old, st State, reason string) {
	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryState,
		Scheme:    s.schemeType().String(),
		Transition: &log.TransitionData{
			Entity:   log.StateEntityManager,
			OldState: old.String(),
			NewState: st.String(),
			Reason:   reason,
		},
	})
	if cb != nil {
		cb(old, st)
	}
}

func (s *Service) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ provision.Manager           = (*Service)(nil)
	_ provision.ServiceUUIDBinder = (*Service)(nil)
)
