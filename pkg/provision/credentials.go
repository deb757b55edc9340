package provision

import "github.com/mash-protocol/wifiprov/pkg/radio"

// Credential field capacities in bytes.
const (
	MaxSSIDLen     = radio.MaxSSIDLen
	MaxPasswordLen = radio.MaxPasswordLen
)

// Credentials is the station configuration captured from the companion.
// Over-long input is truncated at the field capacity.
type Credentials struct {
	ssid     [MaxSSIDLen]byte
	ssidLen  int
	password [MaxPasswordLen]byte
	passLen  int

	truncated bool
}

// Populate clears the record and copies ssid and password into it.
func (c *Credentials) Populate(ssid, password string) {
	*c = Credentials{}

	c.ssidLen = copy(c.ssid[:], ssid)
	c.passLen = copy(c.password[:], password)
	c.truncated = len(ssid) > MaxSSIDLen || len(password) > MaxPasswordLen
}

// SSID returns the captured network name.
func (c *Credentials) SSID() string {
	return string(c.ssid[:c.ssidLen])
}

// Password returns the captured passphrase.
func (c *Credentials) Password() string {
	return string(c.password[:c.passLen])
}

// Empty reports whether no SSID has been captured.
func (c *Credentials) Empty() bool {
	return c.ssidLen == 0
}

// Truncated reports whether the last Populate cut either field.
func (c *Credentials) Truncated() bool {
	return c.truncated
}

// Clear zeroes the record.
func (c *Credentials) Clear() {
	*c = Credentials{}
}
