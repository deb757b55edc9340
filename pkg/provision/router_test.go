package provision

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mash-protocol/wifiprov/pkg/event"
)

var (
	evRecv      = event.ProtocolEvent{Kind: event.CredReceived, SSID: "home", Password: "hunter22"}
	evAccepted  = event.ProtocolEvent{Kind: event.CredSucceeded}
	evRejected  = event.ProtocolEvent{Kind: event.CredFailed, Reason: event.ReasonAuthError}
	evEnd       = event.ProtocolEvent{Kind: event.End}
	evStaStart  = event.DriverEvent{Kind: event.DriverStationStarted}
	evStaDisc   = event.DriverEvent{Kind: event.DriverStationDisconnected, Reason: event.DisconnectAuthFail}
	evGotIP     = event.IPEvent{Kind: event.IPGotIP, Address: netip.MustParseAddr("192.168.1.100")}
	evProtStart = event.ProtocolEvent{Kind: event.ProtocolStarted}
)

func routeAll(r *Router, events ...event.Event) []Decision {
	out := make([]Decision, len(events))
	for i, ev := range events {
		out[i] = r.Route(ev)
	}
	return out
}

func TestRouterTransitions(t *testing.T) {
	tests := []struct {
		name        string
		ev          event.Event
		wantOutcome Outcome
		wantActions []Action
		terminal    bool
		ignored     bool
	}{
		{"CredReceived", evRecv, OutcomePending, nil, false, false},
		{"CredFailed", evRejected, OutcomeFailed, nil, true, false},
		{"End", evEnd, OutcomePending, []Action{ActionDeinit}, false, false},
		{"StationStarted", evStaStart, OutcomePending, []Action{ActionConnect}, false, false},
		{"StationDisconnected", evStaDisc, OutcomeFailed, nil, true, false},
		{"GotIP", evGotIP, OutcomeSucceeded, nil, true, false},
		{"ProtocolStarted", evProtStart, OutcomePending, nil, false, true},
		{"ScanDone", event.DriverEvent{Kind: event.DriverScanDone}, OutcomePending, nil, false, true},
		{"APStarted", event.DriverEvent{Kind: event.DriverAPStarted}, OutcomePending, nil, false, true},
		{"StationConnected", event.DriverEvent{Kind: event.DriverStationConnected}, OutcomePending, nil, false, true},
		{"LostIP", event.IPEvent{Kind: event.IPLostIP}, OutcomePending, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewRouter().Route(tt.ev)

			assert.Equal(t, tt.wantOutcome, d.Outcome)
			assert.Equal(t, tt.wantActions, d.Actions)
			assert.Equal(t, tt.terminal, d.Terminal)
			assert.Equal(t, tt.ignored, d.Ignored)
		})
	}
}

func TestRouterHappyPath(t *testing.T) {
	r := NewRouter()

	ds := routeAll(r, evProtStart, evStaStart, evRecv, evAccepted, evStaStart, evGotIP)

	assert.Equal(t, []Action{ActionConnect}, ds[1].Actions)
	assert.Equal(t, []Action{ActionApplyStation}, ds[3].Actions)
	assert.True(t, ds[5].Terminal)
	assert.Equal(t, OutcomeSucceeded, r.Outcome())
	assert.True(t, r.CredentialsApplied())

	creds := r.Credentials()
	assert.Equal(t, "home", creds.SSID())
	assert.Equal(t, "hunter22", creds.Password())
}

func TestRouterFirstTerminalWins(t *testing.T) {
	tests := []struct {
		name   string
		events []event.Event
		want   Outcome
	}{
		{"SucceededThenDisconnect", []event.Event{evGotIP, evStaDisc, evRejected}, OutcomeSucceeded},
		{"FailedThenGotIP", []event.Event{evRejected, evGotIP}, OutcomeFailed},
		{"DisconnectThenGotIP", []event.Event{evStaDisc, evGotIP, evGotIP}, OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter()
			ds := routeAll(r, tt.events...)

			terminals, signals := 0, 0
			for _, d := range ds {
				if d.Terminal {
					terminals++
				}
				if d.Signal {
					signals++
				}
				assert.Equal(t, tt.want, d.Outcome, "outcome never changes once terminal")
			}
			assert.Equal(t, 1, terminals)
			assert.Equal(t, len(tt.events), signals)
			assert.Equal(t, tt.want, r.Outcome())
		})
	}
}

func TestRouterAcceptedIsNotSuccess(t *testing.T) {
	r := NewRouter()

	ds := routeAll(r, evRecv, evAccepted, evStaStart)

	for _, d := range ds {
		assert.False(t, d.Terminal)
	}
	assert.Equal(t, OutcomePending, r.Outcome())
	assert.True(t, r.CredentialsApplied())
}

func TestRouterAcceptedWithoutCredentials(t *testing.T) {
	r := NewRouter()

	d := r.Route(evAccepted)

	assert.Empty(t, d.Actions)
	assert.NotEmpty(t, d.Warning)
	assert.False(t, r.CredentialsApplied())
}

func TestRouterTruncatesCredentials(t *testing.T) {
	r := NewRouter()

	d := r.Route(event.ProtocolEvent{
		Kind:     event.CredReceived,
		SSID:     strings.Repeat("n", 40),
		Password: "pw",
	})

	assert.NotEmpty(t, d.Warning)
	creds := r.Credentials()
	assert.Len(t, creds.SSID(), MaxSSIDLen)
	assert.True(t, creds.Truncated())
}

func TestRouterLatestCredentialsApplied(t *testing.T) {
	r := NewRouter()

	routeAll(r,
		event.ProtocolEvent{Kind: event.CredReceived, SSID: "first", Password: "one"},
		event.ProtocolEvent{Kind: event.CredReceived, SSID: "second", Password: "two"},
		evAccepted,
	)

	creds := r.Credentials()
	assert.Equal(t, "second", creds.SSID())
	assert.Equal(t, "two", creds.Password())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "APPLY_STATION", ActionApplyStation.String())
	assert.Equal(t, "CONNECT", ActionConnect.String())
	assert.Equal(t, "DEINIT", ActionDeinit.String())
	assert.Equal(t, "UNKNOWN", Action(9).String())
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomePending, "PENDING"},
		{OutcomeSucceeded, "SUCCEEDED"},
		{OutcomeFailed, "FAILED"},
		{OutcomeTimedOut, "TIMED_OUT"},
		{Outcome(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
	if OutcomePending.Terminal() {
		t.Error("pending must not be terminal")
	}
}
