package interactive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mash-protocol/wifiprov/pkg/manager"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

type fakeTarget struct {
	state manager.State
	level security.Level
}

func (f *fakeTarget) State() manager.State     { return f.state }
func (f *fakeTarget) ServiceName() string      { return "PROV_TEST" }
func (f *fakeTarget) Security() security.Level { return f.level }
func (f *fakeTarget) Advertising() bool        { return true }
func (f *fakeTarget) BTReleased() bool         { return false }
func (f *fakeTarget) Connect() (*manager.Channel, error) {
	return nil, manager.ErrNotRunning
}

type fakeNetworks struct {
	nets map[string]string
}

func (f *fakeNetworks) SetNetwork(ssid, password string) { f.nets[ssid] = password }
func (f *fakeNetworks) RemoveNetwork(ssid string)        { delete(f.nets, ssid) }
func (f *fakeNetworks) Connected() bool                  { return false }

func newTestConsole() (*Console, *bytes.Buffer, *fakeNetworks) {
	var out bytes.Buffer
	nets := &fakeNetworks{nets: map[string]string{}}
	c := &Console{
		out:    &out,
		target: &fakeTarget{state: manager.StateIdle, level: security.Security1},
		nets:   nets,
	}
	return c, &out, nets
}

func TestConsoleQuit(t *testing.T) {
	c, _, _ := newTestConsole()

	assert.True(t, c.execute(""))
	assert.True(t, c.execute("help"))
	assert.False(t, c.execute("quit"))
	assert.False(t, c.execute("  EXIT "))
}

func TestConsoleUnknownCommand(t *testing.T) {
	c, out, _ := newTestConsole()

	c.execute("frobnicate")
	assert.Contains(t, out.String(), "Unknown command: frobnicate")
}

func TestConsoleStatus(t *testing.T) {
	c, out, _ := newTestConsole()

	c.execute("status")
	assert.Contains(t, out.String(), "Manager:     IDLE")
	assert.Contains(t, out.String(), "Service:     PROV_TEST")
	assert.Contains(t, out.String(), "Channel:     false")
}

func TestConsoleNetwork(t *testing.T) {
	c, out, nets := newTestConsole()

	c.execute("network add home hunter22")
	c.execute("net add open")
	assert.Equal(t, map[string]string{"home": "hunter22", "open": ""}, nets.nets)

	c.execute("network remove open")
	assert.Equal(t, map[string]string{"home": "hunter22"}, nets.nets)

	out.Reset()
	c.execute("network add")
	assert.Contains(t, out.String(), "Usage: network")

	out.Reset()
	c.execute("network rename a b")
	assert.Contains(t, out.String(), "Unknown network command: rename")
}

func TestConsoleConnectNotRunning(t *testing.T) {
	c, out, _ := newTestConsole()

	c.execute("connect abcd1234")
	assert.Contains(t, out.String(), manager.ErrNotRunning.Error())
	assert.Nil(t, c.channel)
}

func TestConsoleSendRequiresChannel(t *testing.T) {
	c, out, _ := newTestConsole()

	c.execute("send")
	assert.Contains(t, out.String(), "Usage: send")

	out.Reset()
	c.execute("send home hunter22")
	assert.Contains(t, out.String(), "Not connected")

	out.Reset()
	c.execute("disconnect")
	assert.Contains(t, out.String(), "Not connected")
}
