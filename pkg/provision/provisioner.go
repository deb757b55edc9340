package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mash-protocol/wifiprov/pkg/persistence"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
)

// Provisioner runs provisioning sessions, one at a time.
type Provisioner struct {
	config Config

	active atomic.Bool

	mu   sync.Mutex
	last *Session
}

// New creates a Provisioner.
func New(config Config) (*Provisioner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Provisioner{config: config}, nil
}

// Active reports whether a session is in flight.
func (p *Provisioner) Active() bool {
	return p.active.Load()
}

// BeginProvisioning runs a session and reports whether it succeeded.
func (p *Provisioner) BeginProvisioning(ctx context.Context, req Request) (bool, error) {
	outcome, err := p.Begin(ctx, req)
	return outcome == OutcomeSucceeded, err
}

// Begin runs one provisioning session and blocks until it has an outcome.
//
// Setup failures are returned with OutcomePending. If no terminal event
// arrives within Config.Timeout, Begin returns OutcomeTimedOut and a nil
// error; if ctx is cancelled first it returns OutcomeTimedOut and the
// context error. On any result other than OutcomeSucceeded the manager is
// deinitialized before Begin returns.
func (p *Provisioner) Begin(ctx context.Context, req Request) (Outcome, error) {
	if !p.active.CompareAndSwap(false, true) {
		return OutcomePending, ErrSessionActive
	}
	defer p.active.Store(false)

	cfg := &p.config

	if err := persistence.EnsureReady(cfg.Store); err != nil {
		return OutcomePending, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}
	if pr, ok := cfg.Store.(provisionedReporter); ok {
		if provisioned, err := pr.IsProvisioned(); err == nil {
			p.debugLog("credential store ready", "provisioned", provisioned)
		}
	}

	if err := cfg.Radio.InitInterfaces(req.Scheme == scheme.SoftAP); err != nil {
		return OutcomePending, fmt.Errorf("init radio interfaces: %w", err)
	}

	schemeCfg, err := scheme.Resolve(req.Scheme)
	if err != nil {
		return OutcomePending, fmt.Errorf("%w: %w", ErrUnconfiguredScheme, err)
	}

	if !req.Security.Valid() {
		return OutcomePending, fmt.Errorf("%w: %d", ErrInvalidSecurity, req.Security)
	}

	s := newSession(req.Scheme, cfg)
	p.mu.Lock()
	p.last = s
	p.mu.Unlock()

	if err := s.register(cfg.Bus); err != nil {
		return OutcomePending, err
	}
	defer s.close()

	s.transition("", OutcomePending, "begin")

	if err := p.startManager(s, schemeCfg, req); err != nil {
		return OutcomePending, err
	}

	cfg.Metrics.SessionStarted(req.Scheme.String())
	p.debugLog("provisioning started",
		"session", s.ID(),
		"scheme", req.Scheme.String(),
		"security", req.Security.String())

	outcome, err := p.wait(ctx, s)

	if outcome != OutcomeSucceeded {
		if derr := cfg.Manager.Deinit(); derr != nil {
			p.debugLog("manager deinit failed", "session", s.ID(), "error", derr)
		}
	}

	cfg.Metrics.SessionFinished(req.Scheme.String(), outcome.String(), time.Since(s.started))
	p.debugLog("provisioning finished", "session", s.ID(), "outcome", outcome.String())
	return outcome, err
}

// startManager initializes and starts the manager. After a failure past
// Init the manager is deinitialized again.
func (p *Provisioner) startManager(s *Session, schemeCfg scheme.Config, req Request) error {
	mgr := p.config.Manager

	if err := mgr.Init(schemeCfg); err != nil {
		return fmt.Errorf("init provisioning manager: %w", err)
	}

	params := normalize(req)

	err := func() error {
		if schemeCfg.ServiceUUID != nil {
			if binder, ok := mgr.(ServiceUUIDBinder); ok {
				if err := binder.SetServiceUUID(*schemeCfg.ServiceUUID); err != nil {
					return fmt.Errorf("bind service uuid: %w", err)
				}
			}
		}
		if err := mgr.DisableAutoStop(p.config.GraceWindow); err != nil {
			return fmt.Errorf("disable auto stop: %w", err)
		}
		if err := mgr.Start(params); err != nil {
			return fmt.Errorf("start provisioning: %w", err)
		}
		return nil
	}()
	if err != nil {
		_ = mgr.Deinit()
		return err
	}
	return nil
}

// wait blocks on the session gate under the configured timeout.
func (p *Provisioner) wait(ctx context.Context, s *Session) (Outcome, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	outcome, err := s.gate.Wait(waitCtx)
	if err == nil {
		return outcome, nil
	}

	s.transition(OutcomePending.String(), OutcomeTimedOut, err.Error())
	if ctx.Err() != nil {
		return OutcomeTimedOut, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimedOut, nil
	}
	return OutcomeTimedOut, err
}

// normalize applies request defaults.
func normalize(req Request) StartParams {
	params := StartParams{
		Security:    req.Security,
		ServiceName: req.ServiceName,
	}
	if params.ServiceName == "" {
		params.ServiceName = DefaultServiceName
	}
	if req.ProofOfPossession != "" {
		pop := req.ProofOfPossession
		params.PoP = &pop
	}
	if req.Scheme != scheme.BLE && req.ServiceKey != "" {
		key := req.ServiceKey
		params.ServiceKey = &key
	}
	return params
}

// lastSession returns the most recently created session.
func (p *Provisioner) lastSession() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Provisioner) debugLog(msg string, args ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, args...)
	}
}
