package provision_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/wifiprov/pkg/eventloop"
	"github.com/mash-protocol/wifiprov/pkg/manager"
	"github.com/mash-protocol/wifiprov/pkg/persistence"
	"github.com/mash-protocol/wifiprov/pkg/provision"
	"github.com/mash-protocol/wifiprov/pkg/radio"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

type device struct {
	store *persistence.FileStore
	sim   *radio.Sim
	svc   *manager.Service
	prov  *provision.Provisioner
}

func newDevice(t *testing.T) *device {
	t.Helper()

	loop := eventloop.New()
	require.NoError(t, loop.Start(context.Background()))
	t.Cleanup(func() { _ = loop.Stop() })

	store := persistence.NewFileStore(filepath.Join(t.TempDir(), "nvs", "wifi.json"))
	sim := radio.NewSim(loop, radio.SimConfig{
		Networks: map[string]string{"home": "hunter22"},
		Saver:    store,
	})
	svc, err := manager.New(manager.Config{Bus: loop, Radio: sim})
	require.NoError(t, err)

	cfg := provision.DefaultConfig()
	cfg.Store = store
	cfg.Radio = sim
	cfg.Bus = loop
	cfg.Manager = svc
	cfg.GraceWindow = 10 * time.Millisecond
	cfg.Timeout = 3 * time.Second

	p, err := provision.New(cfg)
	require.NoError(t, err)

	return &device{store: store, sim: sim, svc: svc, prov: p}
}

type result struct {
	outcome provision.Outcome
	err     error
}

// begin starts a session and waits until the manager accepts companions.
func (d *device) begin(t *testing.T, req provision.Request) <-chan result {
	t.Helper()
	done := make(chan result, 1)
	go func() {
		o, err := d.prov.Begin(context.Background(), req)
		done <- result{o, err}
	}()
	require.Eventually(t, func() bool {
		return d.svc.State() == manager.StateRunning
	}, time.Second, time.Millisecond)
	return done
}

func (d *device) companion(t *testing.T, level security.Level, pop string) (*manager.Companion, *manager.Channel) {
	t.Helper()
	ch, err := d.svc.Connect()
	require.NoError(t, err)
	comp, err := manager.NewCompanion(level, pop)
	require.NoError(t, err)
	return comp, ch
}

func await(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("Begin did not return")
		return result{}
	}
}

func TestProvisionSoftAPEndToEnd(t *testing.T) {
	d := newDevice(t)
	done := d.begin(t, provision.Request{
		Scheme:            scheme.SoftAP,
		Security:          security.Security1,
		ProofOfPossession: "abcd1234",
	})

	comp, ch := d.companion(t, security.Security1, "abcd1234")
	require.NoError(t, comp.Handshake(ch))
	status, err := comp.SendConfig(ch, "home", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, manager.StatusApplied, status)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, provision.OutcomeSucceeded, r.outcome)
	assert.True(t, d.sim.Connected())
	assert.Equal(t, "PROV_TOIT", d.svc.ServiceName())

	// The manager stops itself once the grace window elapsed
	require.Eventually(t, func() bool {
		return d.svc.State() == manager.StateStopped
	}, time.Second, 5*time.Millisecond)

	station, err := d.store.LoadStation()
	require.NoError(t, err)
	require.NotNil(t, station)
	assert.Equal(t, "home", station.SSID)

	provisioned, err := d.store.IsProvisioned()
	require.NoError(t, err)
	assert.True(t, provisioned)
}

func TestProvisionBLEReleasesBluetooth(t *testing.T) {
	d := newDevice(t)
	done := d.begin(t, provision.Request{
		Scheme:     scheme.BLE,
		Security:   security.Security0,
		ServiceKey: "ignored",
	})
	assert.Equal(t, scheme.ServiceUUID(), d.svc.ServiceUUID())

	comp, ch := d.companion(t, security.Security0, "")
	_, err := comp.SendConfig(ch, "home", "hunter22")
	require.NoError(t, err)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, provision.OutcomeSucceeded, r.outcome)

	require.Eventually(t, d.svc.BTReleased, time.Second, 5*time.Millisecond)
}

func TestProvisionWrongPassphrase(t *testing.T) {
	d := newDevice(t)
	done := d.begin(t, provision.Request{Scheme: scheme.SoftAP, Security: security.Security0})

	comp, ch := d.companion(t, security.Security0, "")
	status, err := comp.SendConfig(ch, "home", "letmein")
	require.NoError(t, err)
	assert.Equal(t, manager.StatusApplied, status, "the protocol layer accepts before the join is tried")

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, provision.OutcomeFailed, r.outcome)
	assert.Equal(t, manager.StateStopped, d.svc.State())
}

func TestProvisionUnknownNetwork(t *testing.T) {
	d := newDevice(t)
	done := d.begin(t, provision.Request{Scheme: scheme.SoftAP, Security: security.Security0})

	comp, ch := d.companion(t, security.Security0, "")
	_, err := comp.SendConfig(ch, "elsewhere", "whatever")
	require.NoError(t, err)

	r := await(t, done)
	assert.Equal(t, provision.OutcomeFailed, r.outcome)
}

func TestProvisionWrongProofOfPossession(t *testing.T) {
	d := newDevice(t)
	done := d.begin(t, provision.Request{
		Scheme:            scheme.SoftAP,
		Security:          security.Security1,
		ProofOfPossession: "abcd1234",
	})

	comp, ch := d.companion(t, security.Security1, "00000000")
	assert.ErrorIs(t, comp.Handshake(ch), security.ErrHandshakeFailed)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, provision.OutcomeFailed, r.outcome)
	assert.False(t, d.sim.Connected())
}

func TestProvisionRepairsCorruptStore(t *testing.T) {
	d := newDevice(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(d.store.Path()), 0755))
	require.NoError(t, os.WriteFile(d.store.Path(), []byte("{not json"), 0600))

	done := d.begin(t, provision.Request{Scheme: scheme.SoftAP, Security: security.Security0})

	comp, ch := d.companion(t, security.Security0, "")
	_, err := comp.SendConfig(ch, "home", "hunter22")
	require.NoError(t, err)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, provision.OutcomeSucceeded, r.outcome)
}
