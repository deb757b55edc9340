package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoutedEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC)
	ev := Event{
		Timestamp: ts,
		SessionID: "3e7f0c7e-5a54-4b0e-9d62-2b1a4f6c9e11",
		Category:  CategoryEvent,
		Namespace: "WIFI_PROV_EVENT",
		EventID:   "WIFI_PROV_CRED_RECV",
		Scheme:    "SOFT_AP",
		Routed: &RoutedEventData{
			Detail:  `WIFI_PROV_CRED_RECV(ssid="home")`,
			Outcome: "PENDING",
		},
	}

	data, err := EncodeEvent(ev)
	require.NoError(t, err)

	got, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, got.Timestamp.Equal(ts), "nanosecond timestamp must survive")
	assert.Equal(t, ev.SessionID, got.SessionID)
	assert.Equal(t, ev.Routed, got.Routed)
	assert.Nil(t, got.Transition)
	assert.Nil(t, got.Error)
}

func TestEncodeDeterministic(t *testing.T) {
	ev := Event{
		Timestamp:  time.Unix(1700000000, 0).UTC(),
		SessionID:  "s",
		Category:   CategoryState,
		Transition: &TransitionData{Entity: StateEntitySession, OldState: "PENDING", NewState: "FAILED"},
	}

	a, err := EncodeEvent(ev)
	require.NoError(t, err)
	b, err := EncodeEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, enc.Encode(Event{
			Timestamp: time.Unix(int64(i), 0).UTC(),
			SessionID: id,
			Category:  CategoryError,
			Error:     &ErrorEventData{Message: "boom", Context: "connect"},
		}))
	}

	dec := NewDecoder(&buf)
	for _, id := range []string{"a", "b", "c"} {
		var ev Event
		require.NoError(t, dec.Decode(&ev))
		assert.Equal(t, id, ev.SessionID)
		assert.Equal(t, "connect", ev.Error.Context)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0x00})
	assert.Error(t, err)
}
