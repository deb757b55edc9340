package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mash-protocol/wifiprov/pkg/security"
)

// ErrChannelClosed is returned after the channel failed or was closed.
var ErrChannelClosed = errors.New("companion channel closed")

// Channel is one companion connection to the service. Calls must follow the
// handshake order: SessionStart, SessionVerify, then any number of
// ApplyConfig calls. Security0 channels skip the handshake.
type Channel struct {
	mu      sync.Mutex
	service *Service
	session *security.DeviceSession
	closed  bool
}

// Level returns the channel security level.
func (c *Channel) Level() security.Level {
	return c.session.Level()
}

// SessionStart handles the companion's public key.
func (c *Channel) SessionStart(clientPub []byte) (devicePub, deviceRandom []byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrChannelClosed
	}
	devicePub, deviceRandom, err = c.session.Start(clientPub)
	if err != nil {
		c.failLocked(err)
		return nil, nil, err
	}
	return devicePub, deviceRandom, nil
}

// SessionVerify checks the companion's verifier. A mismatch, typically a
// wrong proof-of-possession, closes the channel and reports a handshake
// failure.
func (c *Channel) SessionVerify(clientVerify []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChannelClosed
	}
	deviceVerify, err := c.session.Verify(clientVerify)
	if err != nil {
		c.failLocked(err)
		return nil, err
	}
	return deviceVerify, nil
}

// ApplyConfig decrypts and applies a configuration request and returns the
// encrypted response.
func (c *Channel) ApplyConfig(ciphertext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChannelClosed
	}

	plain, err := c.session.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	req, err := DecodeConfigRequest(plain)
	if err != nil {
		return nil, err
	}

	status := c.service.acceptConfig(req)

	data, err := EncodeConfigResponse(ConfigResponse{Status: status})
	if err != nil {
		return nil, fmt.Errorf("encode config response: %w", err)
	}
	return c.session.Encrypt(data)
}

// Close closes the channel.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Channel) failLocked(err error) {
	c.closed = true
	c.service.handshakeFailed(err)
}
