package scheme

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnconfigured is returned for schemes without an adapter configuration.
var ErrUnconfigured = errors.New("provisioning scheme not configured")

// Type selects the provisioning transport.
type Type uint8

const (
	// BLE provisions over Bluetooth Low Energy.
	BLE Type = iota

	// SoftAP provisions over a temporary local access point.
	SoftAP

	// Console is reserved and has no adapter.
	Console
)

// String returns the scheme name.
func (t Type) String() string {
	switch t {
	case BLE:
		return "BLE"
	case SoftAP:
		return "SOFT_AP"
	case Console:
		return "CONSOLE"
	default:
		return "UNKNOWN"
	}
}

// ParseType parses a scheme name as printed by String (case-sensitive)
// or its lower-case form used on command lines.
func ParseType(s string) (Type, error) {
	switch s {
	case "BLE", "ble":
		return BLE, nil
	case "SOFT_AP", "softap", "soft_ap":
		return SoftAP, nil
	case "CONSOLE", "console":
		return Console, nil
	default:
		return 0, fmt.Errorf("unknown provisioning scheme %q", s)
	}
}

// bleServiceUUID is the GATT service identifier advertised in BLE mode.
var bleServiceUUID = uuid.UUID{
	0xb4, 0xdf, 0x5a, 0x1c, 0x3f, 0x6b, 0xf4, 0xbf,
	0xea, 0x4a, 0x82, 0x03, 0x04, 0x90, 0x1a, 0x02,
}

// ServiceUUID returns the fixed BLE service UUID.
func ServiceUUID() uuid.UUID {
	return bleServiceUUID
}

// Config is the resolved configuration for one scheme.
type Config struct {
	// Type is the resolved scheme.
	Type Type

	// NeedsAP is true when the local AP interface must be created.
	NeedsAP bool

	// ReleaseBTOnEnd is true when the Bluetooth controller memory is freed
	// after provisioning ends.
	ReleaseBTOnEnd bool

	// ServiceUUID is the GATT service UUID (BLE only, nil otherwise).
	ServiceUUID *uuid.UUID
}

// Resolve maps a scheme to its adapter configuration.
func Resolve(t Type) (Config, error) {
	switch t {
	case BLE:
		id := bleServiceUUID
		return Config{
			Type:           BLE,
			ReleaseBTOnEnd: true,
			ServiceUUID:    &id,
		}, nil
	case SoftAP:
		return Config{
			Type:    SoftAP,
			NeedsAP: true,
		}, nil
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnconfigured, t)
	}
}
