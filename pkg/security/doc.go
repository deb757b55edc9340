// Package security implements the session security levels negotiated between
// a provisioning device and its companion application.
//
// # Levels
//
//   - Security0: plaintext. No handshake; payloads pass through unchanged.
//   - Security1: X25519 key agreement, optional proof-of-possession (PoP),
//     AES-256-CTR payload encryption.
//
// # Security1 Handshake
//
//  1. Client sends its X25519 public key.
//  2. Device replies with its own public key and a 16-byte random.
//  3. Both derive the shared key: X25519 output, XOR SHA-256(PoP) when a PoP
//     is set. The AES-CTR IV is the device random.
//  4. Client sends the device public key encrypted under the session.
//  5. Device checks it, then replies with the client public key encrypted.
//  6. Client checks it. The session is established.
//
// A PoP mismatch surfaces as ErrHandshakeFailed on the device in step 5.
//
// Each side keeps a single CTR stream for both directions, so messages must
// strictly alternate between the two sides after the handshake.
package security
