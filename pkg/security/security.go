package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// Level is a session security level.
type Level uint8

const (
	// Security0 is plaintext communication.
	Security0 Level = 0

	// Security1 is X25519 + PoP + AES-CTR.
	Security1 Level = 1
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Security0:
		return "SECURITY_0"
	case Security1:
		return "SECURITY_1"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether the level is supported.
func (l Level) Valid() bool {
	return l == Security0 || l == Security1
}

// Sizes used by the Security1 handshake.
const (
	KeySize    = curve25519.PointSize
	RandomSize = aes.BlockSize
)

// Security errors.
var (
	ErrInvalidLevel    = errors.New("invalid security level")
	ErrHandshakeFailed = errors.New("security handshake failed")
	ErrHandshakeState  = errors.New("handshake step out of order")
	ErrNotEstablished  = errors.New("session not established")
	ErrInvalidKey      = errors.New("invalid public key")
)

type keyPair struct {
	private [KeySize]byte
	public  []byte
}

func newKeyPair() (*keyPair, error) {
	kp := &keyPair{}
	if _, err := rand.Read(kp.private[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(kp.private[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	kp.public = pub
	return kp, nil
}

// deriveStream computes the session key and returns the CTR stream.
func deriveStream(priv []byte, peerPub []byte, pop []byte, iv []byte) (cipher.Stream, error) {
	if len(peerPub) != KeySize {
		return nil, ErrInvalidKey
	}
	shared, err := curve25519.X25519(priv, peerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(pop) > 0 {
		digest := sha256.Sum256(pop)
		for i := range shared {
			shared[i] ^= digest[i]
		}
	}

	block, err := aes.NewCipher(shared)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

func xorStream(s cipher.Stream, in []byte) []byte {
	out := make([]byte, len(in))
	s.XORKeyStream(out, in)
	return out
}

// DeviceSession is the device side of a security session.
type DeviceSession struct {
	level Level
	pop   []byte

	keys      *keyPair
	clientPub []byte
	stream    cipher.Stream

	established bool
}

// NewDeviceSession creates the device side of a session. A nil or empty pop
// means no proof-of-possession.
func NewDeviceSession(level Level, pop []byte) (*DeviceSession, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return &DeviceSession{
		level:       level,
		pop:         bytes.Clone(pop),
		established: level == Security0,
	}, nil
}

// Level returns the session level.
func (d *DeviceSession) Level() Level {
	return d.level
}

// Established reports whether payloads can be exchanged.
func (d *DeviceSession) Established() bool {
	return d.established
}

// Start handles the client hello and returns the device public key and
// random.
func (d *DeviceSession) Start(clientPub []byte) (devicePub, deviceRandom []byte, err error) {
	if d.level != Security1 || d.keys != nil {
		return nil, nil, ErrHandshakeState
	}

	keys, err := newKeyPair()
	if err != nil {
		return nil, nil, err
	}
	random := make([]byte, RandomSize)
	if _, err := rand.Read(random); err != nil {
		return nil, nil, err
	}

	stream, err := deriveStream(keys.private[:], clientPub, d.pop, random)
	if err != nil {
		return nil, nil, err
	}

	d.keys = keys
	d.clientPub = bytes.Clone(clientPub)
	d.stream = stream
	return bytes.Clone(keys.public), random, nil
}

// Verify checks the client verifier and returns the device verifier.
func (d *DeviceSession) Verify(clientVerify []byte) ([]byte, error) {
	if d.level != Security1 || d.keys == nil || d.established {
		return nil, ErrHandshakeState
	}

	if !bytes.Equal(xorStream(d.stream, clientVerify), d.keys.public) {
		return nil, ErrHandshakeFailed
	}

	d.established = true
	return xorStream(d.stream, d.clientPub), nil
}

// Encrypt encrypts an outgoing payload.
func (d *DeviceSession) Encrypt(p []byte) ([]byte, error) {
	return d.apply(p)
}

// Decrypt decrypts an incoming payload.
func (d *DeviceSession) Decrypt(p []byte) ([]byte, error) {
	return d.apply(p)
}

func (d *DeviceSession) apply(p []byte) ([]byte, error) {
	if !d.established {
		return nil, ErrNotEstablished
	}
	if d.level == Security0 {
		return bytes.Clone(p), nil
	}
	return xorStream(d.stream, p), nil
}

// Client is the companion side of a security session.
type Client struct {
	level Level
	pop   []byte

	keys      *keyPair
	devicePub []byte
	stream    cipher.Stream

	established bool
}

// NewClient creates the companion side of a session.
func NewClient(level Level, pop []byte) (*Client, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return &Client{
		level:       level,
		pop:         bytes.Clone(pop),
		established: level == Security0,
	}, nil
}

// Level returns the session level.
func (c *Client) Level() Level {
	return c.level
}

// Established reports whether payloads can be exchanged.
func (c *Client) Established() bool {
	return c.established
}

// Hello generates the client key pair and returns the public key.
func (c *Client) Hello() ([]byte, error) {
	if c.level != Security1 || c.keys != nil {
		return nil, ErrHandshakeState
	}
	keys, err := newKeyPair()
	if err != nil {
		return nil, err
	}
	c.keys = keys
	return bytes.Clone(keys.public), nil
}

// Respond derives the session from the device reply and returns the client
// verifier.
func (c *Client) Respond(devicePub, deviceRandom []byte) ([]byte, error) {
	if c.keys == nil || c.stream != nil {
		return nil, ErrHandshakeState
	}
	if len(deviceRandom) != RandomSize {
		return nil, fmt.Errorf("%w: random size %d", ErrHandshakeFailed, len(deviceRandom))
	}

	stream, err := deriveStream(c.keys.private[:], devicePub, c.pop, deviceRandom)
	if err != nil {
		return nil, err
	}
	c.stream = stream
	c.devicePub = bytes.Clone(devicePub)
	return xorStream(c.stream, c.devicePub), nil
}

// Finish checks the device verifier.
func (c *Client) Finish(deviceVerify []byte) error {
	if c.stream == nil || c.established {
		return ErrHandshakeState
	}
	if !bytes.Equal(xorStream(c.stream, deviceVerify), c.keys.public) {
		return ErrHandshakeFailed
	}
	c.established = true
	return nil
}

// Encrypt encrypts an outgoing payload.
func (c *Client) Encrypt(p []byte) ([]byte, error) {
	return c.apply(p)
}

// Decrypt decrypts an incoming payload.
func (c *Client) Decrypt(p []byte) ([]byte, error) {
	return c.apply(p)
}

func (c *Client) apply(p []byte) ([]byte, error) {
	if !c.established {
		return nil, ErrNotEstablished
	}
	if c.level == Security0 {
		return bytes.Clone(p), nil
	}
	return xorStream(c.stream, p), nil
}
