package scheme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("BLE", func(t *testing.T) {
		cfg, err := Resolve(BLE)
		require.NoError(t, err)

		assert.Equal(t, BLE, cfg.Type)
		assert.False(t, cfg.NeedsAP)
		assert.True(t, cfg.ReleaseBTOnEnd)
		require.NotNil(t, cfg.ServiceUUID)
		assert.Equal(t, "b4df5a1c-3f6b-f4bf-ea4a-820304901a02", cfg.ServiceUUID.String())
	})

	t.Run("SoftAP", func(t *testing.T) {
		cfg, err := Resolve(SoftAP)
		require.NoError(t, err)

		assert.Equal(t, SoftAP, cfg.Type)
		assert.True(t, cfg.NeedsAP)
		assert.False(t, cfg.ReleaseBTOnEnd)
		assert.Nil(t, cfg.ServiceUUID)
	})

	t.Run("ConsoleUnconfigured", func(t *testing.T) {
		_, err := Resolve(Console)
		if !errors.Is(err, ErrUnconfigured) {
			t.Errorf("Resolve(Console) error = %v, want ErrUnconfigured", err)
		}
	})

	t.Run("UnknownUnconfigured", func(t *testing.T) {
		_, err := Resolve(Type(42))
		assert.ErrorIs(t, err, ErrUnconfigured)
	})
}

func TestServiceUUIDIsACopy(t *testing.T) {
	cfg, err := Resolve(BLE)
	require.NoError(t, err)

	cfg.ServiceUUID[0] = 0x00
	id := ServiceUUID()
	if id[0] != 0xb4 {
		t.Errorf("ServiceUUID()[0] = %#x, want 0xb4", id[0])
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"ble", BLE, false},
		{"BLE", BLE, false},
		{"softap", SoftAP, false},
		{"SOFT_AP", SoftAP, false},
		{"console", Console, false},
		{"usb", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "BLE", BLE.String())
	assert.Equal(t, "SOFT_AP", SoftAP.String())
	assert.Equal(t, "CONSOLE", Console.String())
	assert.Equal(t, "UNKNOWN", Type(9).String())
}
