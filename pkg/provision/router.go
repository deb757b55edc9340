package provision

import (
	"sync"

	"github.com/mash-protocol/wifiprov/pkg/event"
)

// Action is a side effect requested by the router.
type Action uint8

const (
	// ActionApplyStation applies the captured credentials to the station.
	ActionApplyStation Action = iota

	// ActionConnect asks the station to join the configured network.
	ActionConnect

	// ActionDeinit shuts the provisioning manager down.
	ActionDeinit
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionApplyStation:
		return "APPLY_STATION"
	case ActionConnect:
		return "CONNECT"
	case ActionDeinit:
		return "DEINIT"
	default:
		return "UNKNOWN"
	}
}

// Decision is the result of routing one event.
type Decision struct {
	// Outcome is the session outcome after the event.
	Outcome Outcome

	// Terminal is true only for the event that ended the session.
	Terminal bool

	// Signal is true for every terminal event, including ones that arrive
	// after the outcome was decided.
	Signal bool

	// Actions lists the side effects to perform, in order.
	Actions []Action

	// Ignored is true when the event id is not routed.
	Ignored bool

	// Warning describes a non-fatal anomaly, if any.
	Warning string
}

// Router is the outcome state machine of one session.
type Router struct {
	mu sync.Mutex

	creds   Credentials
	applied bool
	outcome Outcome
}

// NewRouter creates a router in the pending state.
func NewRouter() *Router {
	return &Router{}
}

// Outcome returns the current outcome.
func (r *Router) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Credentials returns a copy of the captured credentials.
func (r *Router) Credentials() Credentials {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds
}

// CredentialsApplied reports whether credentials were handed to the station.
func (r *Router) CredentialsApplied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// Route advances the state machine with ev.
func (r *Router) Route(ev event.Event) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := Decision{Outcome: r.outcome}

	switch e := ev.(type) {
	case event.ProtocolEvent:
		r.routeProtocol(e, &d)
	case event.DriverEvent:
		switch e.Kind {
		case event.DriverStationStarted:
			d.Actions = []Action{ActionConnect}
		case event.DriverStationDisconnected:
			r.finish(OutcomeFailed, &d)
		default:
			d.Ignored = true
		}
	case event.IPEvent:
		if e.Kind == event.IPGotIP {
			r.finish(OutcomeSucceeded, &d)
		} else {
			d.Ignored = true
		}
	default:
		d.Ignored = true
	}

	return d
}

func (r *Router) routeProtocol(e event.ProtocolEvent, d *Decision) {
	switch e.Kind {
	case event.CredReceived:
		r.creds.Populate(e.SSID, e.Password)
		if r.creds.Truncated() {
			d.Warning = "credentials truncated to station config capacity"
		}
	case event.CredFailed:
		r.finish(OutcomeFailed, d)
	case event.CredSucceeded:
		if r.creds.Empty() {
			d.Warning = "credentials accepted but none were received"
			return
		}
		r.applied = true
		d.Actions = []Action{ActionApplyStation}
	case event.End:
		d.Actions = []Action{ActionDeinit}
	default:
		d.Ignored = true
	}
}

// finish moves to a terminal outcome unless one was already reached.
func (r *Router) finish(o Outcome, d *Decision) {
	d.Signal = true
	if r.outcome.Terminal() {
		return
	}
	r.outcome = o
	d.Outcome = o
	d.Terminal = true
}
