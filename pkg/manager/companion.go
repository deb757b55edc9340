package manager

import (
	"fmt"

	"github.com/mash-protocol/wifiprov/pkg/security"
)

// Companion drives a Channel from the companion side.
type Companion struct {
	client *security.Client
}

// NewCompanion creates a companion for the given level and
// proof-of-possession (empty for none).
func NewCompanion(level security.Level, pop string) (*Companion, error) {
	var p []byte
	if pop != "" {
		p = []byte(pop)
	}
	client, err := security.NewClient(level, p)
	if err != nil {
		return nil, err
	}
	return &Companion{client: client}, nil
}

// Handshake establishes the session over ch. It is a no-op for Security0.
func (c *Companion) Handshake(ch *Channel) error {
	if c.client.Level() == security.Security0 {
		return nil
	}

	hello, err := c.client.Hello()
	if err != nil {
		return err
	}
	devicePub, deviceRandom, err := ch.SessionStart(hello)
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	clientVerify, err := c.client.Respond(devicePub, deviceRandom)
	if err != nil {
		return fmt.Errorf("session respond: %w", err)
	}
	deviceVerify, err := ch.SessionVerify(clientVerify)
	if err != nil {
		return fmt.Errorf("session verify: %w", err)
	}
	return c.client.Finish(deviceVerify)
}

// SendConfig sends station credentials and returns the device's status.
func (c *Companion) SendConfig(ch *Channel, ssid, passphrase string) (ConfigStatus, error) {
	data, err := EncodeConfigRequest(ConfigRequest{SSID: ssid, Passphrase: passphrase})
	if err != nil {
		return StatusInvalid, err
	}
	ciphertext, err := c.client.Encrypt(data)
	if err != nil {
		return StatusInvalid, err
	}

	reply, err := ch.ApplyConfig(ciphertext)
	if err != nil {
		return StatusInvalid, err
	}

	plain, err := c.client.Decrypt(reply)
	if err != nil {
		return StatusInvalid, err
	}
	resp, err := DecodeConfigResponse(plain)
	if err != nil {
		return StatusInvalid, err
	}
	return resp.Status, nil
}
