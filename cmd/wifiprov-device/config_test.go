package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/wifiprov/pkg/scheme"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

func TestNetworksFlag(t *testing.T) {
	nets := networksFlag{}

	require.NoError(t, nets.Set("home=hunter22"))
	require.NoError(t, nets.Set("open="))
	require.NoError(t, nets.Set("lab=a=b"))

	assert.Equal(t, "hunter22", nets["home"])
	assert.Equal(t, "", nets["open"])
	assert.Equal(t, "a=b", nets["lab"])
	assert.Equal(t, "home,lab,open", nets.String())

	assert.Error(t, nets.Set("nopassword"))
	assert.Error(t, nets.Set("=secret"))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	data := `
scheme: ble
security: 0
service_name: KITCHEN
timeout: 30s
grace: 2s
networks:
  home: hunter22
  guest: welcome1
companion_ssid: home
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg := defaultConfig()
	require.NoError(t, loadConfigFile(path, &cfg))

	assert.Equal(t, "ble", cfg.Scheme)
	assert.Equal(t, uint(0), cfg.Security)
	assert.Equal(t, "KITCHEN", cfg.ServiceName)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Grace)
	assert.Equal(t, map[string]string{"home": "hunter22", "guest": "welcome1"}, cfg.Networks)
	assert.Equal(t, "home", cfg.CompanionSSID)

	// Unset keys keep their defaults.
	assert.Equal(t, "wifiprov-nvs.json", cfg.StorePath)
	assert.Equal(t, uint16(80), cfg.Port)
}

func TestLoadConfigFileErrors(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, loadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1, 2"), 0o644))
	assert.Error(t, loadConfigFile(path, &cfg))
}

func TestConfigRequest(t *testing.T) {
	cfg := defaultConfig()
	cfg.PoP = "abcd1234"
	cfg.ServiceKey = "secret12"

	req, err := cfg.request()
	require.NoError(t, err)
	assert.Equal(t, scheme.SoftAP, req.Scheme)
	assert.Equal(t, security.Security1, req.Security)
	assert.Equal(t, "abcd1234", req.ProofOfPossession)
	assert.Equal(t, "secret12", req.ServiceKey)
	assert.Empty(t, req.ServiceName)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"ble", func(c *Config) { c.Scheme = "ble" }, false},
		{"unknown scheme", func(c *Config) { c.Scheme = "zigbee" }, true},
		{"security 2", func(c *Config) { c.Security = 2 }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative grace", func(c *Config) { c.Grace = -time.Second }, true},
		{"zero grace", func(c *Config) { c.Grace = 0 }, false},
		{"no store", func(c *Config) { c.StorePath = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
