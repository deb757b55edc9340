package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/wifiprov/pkg/provision"
	"github.com/mash-protocol/wifiprov/pkg/scheme"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

// Config holds the device configuration. Values come from defaults, then
// the YAML file, then explicitly set flags.
type Config struct {
	ConfigFile string `yaml:"-"`

	Scheme      string        `yaml:"scheme"`
	Security    uint          `yaml:"security"`
	PoP         string        `yaml:"pop"`
	ServiceName string        `yaml:"service_name"`
	ServiceKey  string        `yaml:"service_key"`
	Timeout     time.Duration `yaml:"timeout"`
	Grace       time.Duration `yaml:"grace"`

	StorePath   string `yaml:"store"`
	CapturePath string `yaml:"capture"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	// Networks maps SSIDs reachable by the simulated radio to passphrases.
	Networks map[string]string `yaml:"networks"`

	MDNS      bool   `yaml:"mdns"`
	Interface string `yaml:"interface"`
	Port      uint16 `yaml:"port"`

	Interactive bool `yaml:"-"`

	// Scripted companion, used when not interactive.
	CompanionSSID string `yaml:"companion_ssid"`
	CompanionPass string `yaml:"companion_pass"`
	CompanionPoP  string `yaml:"companion_pop"`
}

func defaultConfig() Config {
	return Config{
		Scheme:    "softap",
		Security:  1,
		Timeout:   provision.DefaultTimeout,
		Grace:     provision.DefaultGraceWindow,
		StorePath: "wifiprov-nvs.json",
		LogLevel:  "info",
		Port:      80,
	}
}

// loadConfigFile overlays the YAML file at path onto cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// networksFlag parses repeated -network ssid=passphrase flags.
type networksFlag map[string]string

func (n networksFlag) String() string {
	ssids := make([]string, 0, len(n))
	for ssid := range n {
		ssids = append(ssids, ssid)
	}
	sort.Strings(ssids)
	return strings.Join(ssids, ",")
}

func (n networksFlag) Set(v string) error {
	ssid, pass, ok := strings.Cut(v, "=")
	if !ok || ssid == "" {
		return fmt.Errorf("network must be ssid=passphrase, got %q", v)
	}
	n[ssid] = pass
	return nil
}

// request builds the provisioning request.
func (c *Config) request() (provision.Request, error) {
	t, err := scheme.ParseType(c.Scheme)
	if err != nil {
		return provision.Request{}, err
	}
	return provision.Request{
		Scheme:            t,
		Security:          security.Level(c.Security),
		ProofOfPossession: c.PoP,
		ServiceName:       c.ServiceName,
		ServiceKey:        c.ServiceKey,
	}, nil
}

func (c *Config) validate() error {
	if _, err := c.request(); err != nil {
		return err
	}
	if c.Security > 1 {
		return fmt.Errorf("security must be 0 or 1, got %d", c.Security)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Grace < 0 {
		return fmt.Errorf("grace must not be negative, got %s", c.Grace)
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}
