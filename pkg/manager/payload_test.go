package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRequestEncoding(t *testing.T) {
	data, err := EncodeConfigRequest(ConfigRequest{SSID: "home", Passphrase: "hunter22"})
	require.NoError(t, err)

	// Integer keys, deterministic: {1: "home", 2: "hunter22"}
	assert.Equal(t, byte(0xa2), data[0])

	got, err := DecodeConfigRequest(data)
	require.NoError(t, err)
	assert.Equal(t, "home", got.SSID)
	assert.Equal(t, "hunter22", got.Passphrase)
}

func TestConfigRequestOpenNetwork(t *testing.T) {
	data, err := EncodeConfigRequest(ConfigRequest{SSID: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, byte(0xa1), data[0], "empty passphrase is omitted")
}

func TestDecodeConfigRequestDuplicateKey(t *testing.T) {
	// {1: "a", 1: "b"}
	data := []byte{0xa2, 0x01, 0x61, 'a', 0x01, 0x61, 'b'}

	_, err := DecodeConfigRequest(data)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestConfigStatusString(t *testing.T) {
	assert.Equal(t, "APPLIED", StatusApplied.String())
	assert.Equal(t, "INVALID", StatusInvalid.String())
	assert.Equal(t, "NOT_RUNNING", StatusNotRunning.String())
	assert.Equal(t, "UNKNOWN", ConfigStatus(7).String())
}
