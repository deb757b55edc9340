package provision

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/wifiprov/pkg/event"
	"github.com/mash-protocol/wifiprov/pkg/log"
	"github.com/mash-protocol/wifiprov/pkg/metrics"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
)

// Session is the state of one provisioning attempt. Its handler is
// registered on every event namespace for the duration of Begin.
type Session struct {
	id      uuid.UUID
	scheme  scheme.Type
	started time.Time

	router *Router
	gate   *Gate

	radio   Radio
	manager Manager

	logger  *slog.Logger
	plog    log.Logger
	metrics *metrics.Recorder

	unregister []func()
}

func newSession(t scheme.Type, cfg *Config) *Session {
	plog := cfg.ProtocolLogger
	if plog == nil {
		plog = log.NoopLogger{}
	}
	return &Session{
		id:      uuid.New(),
		scheme:  t,
		started: time.Now(),
		router:  NewRouter(),
		gate:    NewGate(),
		radio:   cfg.Radio,
		manager: cfg.Manager,
		logger:  cfg.Logger,
		plog:    plog,
		metrics: cfg.Metrics,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id.String()
}

// Outcome returns the current outcome.
func (s *Session) Outcome() Outcome {
	return s.router.Outcome()
}

// SignalCount returns how many terminal signals reached the gate.
func (s *Session) SignalCount() int {
	return s.gate.SignalCount()
}

// register subscribes the session handler on every namespace.
func (s *Session) register(bus EventBus) error {
	for _, ns := range event.Namespaces() {
		unregister, err := bus.Register(ns, s.Handle)
		if err != nil {
			s.close()
			return fmt.Errorf("register %s handler: %w", ns, err)
		}
		s.unregister = append(s.unregister, unregister)
	}
	return nil
}

// close removes the session handlers.
func (s *Session) close() {
	for _, unregister := range s.unregister {
		unregister()
	}
	s.unregister = nil
}

// Handle routes one event and performs the resulting side effects. Errors
// from side effects are logged, never returned.
func (s *Session) Handle(ev event.Event) {
	d := s.router.Route(ev)

	s.metrics.EventRouted(string(ev.Namespace()), ev.ID())
	s.capture(ev, d)

	if d.Warning != "" {
		s.warnLog(d.Warning, "event", ev.ID())
	}

	for _, a := range d.Actions {
		if err := s.perform(a); err != nil {
			s.warnLog("provisioning action failed", "action", a.String(), "error", err)
			s.plog.Log(log.Event{
				Timestamp: time.Now(),
				SessionID: s.ID(),
				Category:  log.CategoryError,
				Scheme:    s.scheme.String(),
				Error: &log.ErrorEventData{
					Message: err.Error(),
					Context: a.String(),
				},
			})
		}
	}

	if d.Terminal {
		s.transition(OutcomePending.String(), d.Outcome, ev.ID())
	}
	if d.Signal {
		s.gate.Signal(d.Outcome)
	}
}

func (s *Session) perform(a Action) error {
	switch a {
	case ActionApplyStation:
		creds := s.router.Credentials()
		return s.radio.ApplyStationConfig(creds.SSID(), creds.Password())
	case ActionConnect:
		return s.radio.Connect()
	case ActionDeinit:
		return s.manager.Deinit()
	default:
		return fmt.Errorf("unknown action %d", a)
	}
}

func (s *Session) capture(ev event.Event, d Decision) {
	routed := &log.RoutedEventData{
		Detail:  fmt.Sprint(ev),
		Ignored: d.Ignored,
		Outcome: d.Outcome.String(),
	}
	for _, a := range d.Actions {
		routed.Actions = append(routed.Actions, a.String())
	}

	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.ID(),
		Category:  log.CategoryEvent,
		Namespace: string(ev.Namespace()),
		EventID:   ev.ID(),
		Scheme:    s.scheme.String(),
		Routed:    routed,
	})
}

// transition records an outcome change in the capture.
func (s *Session) transition(old string, to Outcome, reason string) {
	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.ID(),
		Category:  log.CategoryState,
		Scheme:    s.scheme.String(),
		Transition: &log.TransitionData{
			Entity:   log.StateEntitySession,
			OldState: old,
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (s *Session) warnLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, append([]any{"session", s.ID()}, args...)...)
	}
}
