package provision

import (
	"strings"
	"testing"
)

func TestCredentialsPopulate(t *testing.T) {
	tests := []struct {
		name          string
		ssid          string
		password      string
		wantSSID      string
		wantPassword  string
		wantTruncated bool
	}{
		{
			name:     "Fits",
			ssid:     "home",
			password: "hunter22",
			wantSSID: "home", wantPassword: "hunter22",
		},
		{
			name:     "ExactCapacity",
			ssid:     strings.Repeat("s", MaxSSIDLen),
			password: strings.Repeat("p", MaxPasswordLen),
			wantSSID: strings.Repeat("s", MaxSSIDLen), wantPassword: strings.Repeat("p", MaxPasswordLen),
		},
		{
			name:     "LongSSID",
			ssid:     strings.Repeat("s", MaxSSIDLen+8),
			password: "pw",
			wantSSID: strings.Repeat("s", MaxSSIDLen), wantPassword: "pw",
			wantTruncated: true,
		},
		{
			name:     "LongPassword",
			ssid:     "home",
			password: strings.Repeat("p", MaxPasswordLen+1),
			wantSSID: "home", wantPassword: strings.Repeat("p", MaxPasswordLen),
			wantTruncated: true,
		},
		{
			name:     "OpenNetwork",
			ssid:     "cafe",
			wantSSID: "cafe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Credentials
			c.Populate(tt.ssid, tt.password)

			if got := c.SSID(); got != tt.wantSSID {
				t.Errorf("SSID() = %q, want %q", got, tt.wantSSID)
			}
			if got := c.Password(); got != tt.wantPassword {
				t.Errorf("Password() = %q, want %q", got, tt.wantPassword)
			}
			if got := c.Truncated(); got != tt.wantTruncated {
				t.Errorf("Truncated() = %v, want %v", got, tt.wantTruncated)
			}
		})
	}
}

func TestCredentialsPopulateClearsPrevious(t *testing.T) {
	var c Credentials
	c.Populate("a-much-longer-network-name", "a-much-longer-password")
	c.Populate("short", "pw")

	if got := c.SSID(); got != "short" {
		t.Errorf("SSID() = %q, want %q", got, "short")
	}
	if got := c.Password(); got != "pw" {
		t.Errorf("Password() = %q, want %q", got, "pw")
	}
}

func TestCredentialsEmpty(t *testing.T) {
	var c Credentials
	if !c.Empty() {
		t.Error("zero Credentials should be empty")
	}
	c.Populate("x", "")
	if c.Empty() {
		t.Error("Credentials with an SSID should not be empty")
	}
	c.Clear()
	if !c.Empty() || c.Truncated() {
		t.Error("Clear should reset the record")
	}
}
