package radio

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"

	"github.com/mash-protocol/wifiprov/pkg/event"
)

// Station configuration field capacities in bytes.
const (
	MaxSSIDLen     = 32
	MaxPasswordLen = 64
)

// Radio errors.
var (
	ErrNotInitialized     = errors.New("radio interfaces not initialized")
	ErrStationNotStarted  = errors.New("station interface not started")
	ErrNoStationConfig    = errors.New("no station configuration")
	ErrInvalidStationConf = errors.New("invalid station configuration")
)

// Poster delivers events to the event loop.
type Poster interface {
	Post(ev event.Event) error
}

// StationSaver persists applied station configurations.
type StationSaver interface {
	SaveStation(ssid, password string) error
}

// SimConfig configures a simulated radio.
type SimConfig struct {
	// Networks maps reachable SSIDs to their passphrases.
	Networks map[string]string

	// AddressPrefix is the subnet addresses are leased from
	// (default 192.168.1.0/24).
	AddressPrefix netip.Prefix

	// Saver persists applied configurations (optional).
	Saver StationSaver

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Sim is a simulated radio stack.
type Sim struct {
	mu sync.Mutex

	poster   Poster
	networks map[string]string
	prefix   netip.Prefix
	saver    StationSaver
	logger   *slog.Logger

	initialized bool
	needsAP     bool
	stationUp   bool
	apUp        bool
	connected   bool

	ssid     string
	password string

	nextHost netip.Addr
}

// NewSim creates a simulated radio posting events to poster.
func NewSim(poster Poster, cfg SimConfig) *Sim {
	prefix := cfg.AddressPrefix
	if !prefix.IsValid() {
		prefix = netip.MustParsePrefix("192.168.1.0/24")
	}

	networks := make(map[string]string, len(cfg.Networks))
	for ssid, pw := range cfg.Networks {
		networks[ssid] = pw
	}

	return &Sim{
		poster:   poster,
		networks: networks,
		prefix:   prefix.Masked(),
		saver:    cfg.Saver,
		logger:   cfg.Logger,
		nextHost: firstHost(prefix.Masked()),
	}
}

// firstHost returns the .100 address of an IPv4 prefix, or the first
// address after the network address otherwise.
func firstHost(p netip.Prefix) netip.Addr {
	addr := p.Addr()
	if addr.Is4() && p.Bits() <= 24 {
		b := addr.As4()
		b[3] = 100
		return netip.AddrFrom4(b)
	}
	return addr.Next()
}

// SetNetwork makes a network reachable (or changes its passphrase).
func (s *Sim) SetNetwork(ssid, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[ssid] = password
}

// RemoveNetwork makes a network unreachable.
func (s *Sim) RemoveNetwork(ssid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.networks, ssid)
}

// InitInterfaces creates the station interface and, if needsAP, the AP
// interface. Calling it again reconfigures the interfaces.
func (s *Sim) InitInterfaces(needsAP bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.needsAP = needsAP
	s.debugLog("radio: interfaces initialized", "ap", needsAP)
	return nil
}

// ApplyStationConfig sets the credentials used by the next Connect.
func (s *Sim) ApplyStationConfig(ssid, password string) error {
	if ssid == "" || len(ssid) > MaxSSIDLen || len(password) > MaxPasswordLen {
		return ErrInvalidStationConf
	}

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.ssid = ssid
	s.password = password
	saver := s.saver
	s.mu.Unlock()

	s.debugLog("radio: station config applied", "ssid", ssid)

	if saver != nil {
		if err := saver.SaveStation(ssid, password); err != nil {
			return fmt.Errorf("persist station config: %w", err)
		}
	}
	return nil
}

// StationConfig returns the currently applied SSID.
func (s *Sim) StationConfig() (ssid string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ssid, s.ssid != ""
}

// StartStation starts the station interface (and the AP interface when it
// was requested).
func (s *Sim) StartStation() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	var events []event.Event
	if !s.stationUp {
		s.stationUp = true
		events = append(events, event.DriverEvent{Kind: event.DriverStationStarted})
	}
	if s.needsAP && !s.apUp {
		s.apUp = true
		events = append(events, event.DriverEvent{Kind: event.DriverAPStarted})
	}
	s.mu.Unlock()

	return s.post(events...)
}

// RestartStation stops and starts the station interface so a newly applied
// configuration takes effect. An existing association is dropped first.
func (s *Sim) RestartStation() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	var events []event.Event
	if s.connected {
		s.connected = false
		events = append(events, event.DriverEvent{
			Kind:   event.DriverStationDisconnected,
			Reason: event.DisconnectAssocLeave,
		})
	}
	if s.stationUp {
		events = append(events, event.DriverEvent{Kind: event.DriverStationStopped})
	}
	s.stationUp = true
	events = append(events, event.DriverEvent{Kind: event.DriverStationStarted})
	s.mu.Unlock()

	return s.post(events...)
}

// Connect attempts to join the network of the applied configuration.
func (s *Sim) Connect() error {
	s.mu.Lock()
	if !s.stationUp {
		s.mu.Unlock()
		return ErrStationNotStarted
	}
	if s.ssid == "" {
		s.mu.Unlock()
		return ErrNoStationConfig
	}

	var events []event.Event
	pw, reachable := s.networks[s.ssid]
	switch {
	case !reachable:
		s.connected = false
		events = append(events, event.DriverEvent{
			Kind:   event.DriverStationDisconnected,
			Reason: event.DisconnectNoAPFound,
		})
	case pw != s.password:
		s.connected = false
		events = append(events, event.DriverEvent{
			Kind:   event.DriverStationDisconnected,
			Reason: event.DisconnectAuthFail,
		})
	default:
		s.connected = true
		addr := s.leaseLocked()
		events = append(events,
			event.DriverEvent{Kind: event.DriverStationConnected},
			event.IPEvent{Kind: event.IPGotIP, Address: addr},
		)
	}
	ssid := s.ssid
	s.mu.Unlock()

	s.debugLog("radio: connect attempt", "ssid", ssid, "reachable", reachable)
	return s.post(events...)
}

// Stop shuts the interfaces down.
func (s *Sim) Stop() error {
	s.mu.Lock()
	var events []event.Event
	if s.stationUp {
		s.stationUp = false
		s.connected = false
		events = append(events, event.DriverEvent{Kind: event.DriverStationStopped})
	}
	if s.apUp {
		s.apUp = false
		events = append(events, event.DriverEvent{Kind: event.DriverAPStopped})
	}
	s.mu.Unlock()

	return s.post(events...)
}

// Connected reports whether the station is associated.
func (s *Sim) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// leaseLocked returns the next address from the prefix. Caller holds mu.
func (s *Sim) leaseLocked() netip.Addr {
	addr := s.nextHost
	next := addr.Next()
	if !s.prefix.Contains(next) {
		next = firstHost(s.prefix)
	}
	s.nextHost = next
	return addr
}

func (s *Sim) post(events ...event.Event) error {
	var errs []error
	for _, ev := range events {
		if err := s.poster.Post(ev); err != nil {
			errs = append(errs, fmt.Errorf("post %s: %w", ev.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sim) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
