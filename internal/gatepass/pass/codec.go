// Package pass encodes, decodes and judges visitor pass tokens.
//
// A token is hex(nonce) ":" hex(ciphertext), where the ciphertext is the
// CBOR-encoded Payload sealed with XChaCha20-Poly1305. The key is derived
// from the configured secret with HKDF-SHA256 and lives only inside a Codec.
package pass

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ChecksumLength is the number of hex characters kept from the checksum
// hash. It guards against payload editing, not brute force.
const ChecksumLength = 16

// hkdfInfo separates the pass key from anything else derived from the
// same secret. Changing it invalidates every issued pass.
var hkdfInfo = []byte("campuspass.pass.v1")

var ErrEmptySecret = errors.New("pass secret is required")

type DecodeKind string

const (
	// DecodeMalformed: the token could not be split, hex-decoded or
	// authenticated under this codec's key.
	DecodeMalformed DecodeKind = "malformed"
	// DecodeUnparsable: decryption succeeded but the plaintext is not a
	// pass payload.
	DecodeUnparsable DecodeKind = "unparsable"
)

type DecodeError struct {
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "pass token " + string(e.Kind)
	}
	return fmt.Sprintf("pass token %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(err error) error { return &DecodeError{Kind: DecodeMalformed, Err: err} }
func unparsable(err error) error { return &DecodeError{Kind: DecodeUnparsable, Err: err} }

// Codec owns the key material. It is immutable after construction and safe
// for concurrent use.
type Codec struct {
	aead   cipher.AEAD
	secret []byte
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive pass key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init pass cipher: %w", err)
	}

	return &Codec{aead: aead, secret: []byte(secret)}, nil
}

// Encode seals p under a nonce drawn fresh from crypto/rand for this call.
func (c *Codec) Encode(p Payload) (string, error) {
	plaintext, err := marshalPayload(p)
	if err != nil {
		return "", fmt.Errorf("encode pass payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("pass nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decode reverses Encode. Any failure is a *DecodeError.
func (c *Codec) Decode(token string) (Payload, error) {
	nonceHex, sealedHex, ok := strings.Cut(strings.TrimSpace(token), ":")
	if !ok {
		return Payload{}, malformed(errors.New("missing separator"))
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return Payload{}, malformed(fmt.Errorf("nonce: %w", err))
	}
	if len(nonce) != c.aead.NonceSize() {
		return Payload{}, malformed(fmt.Errorf("nonce length %d", len(nonce)))
	}

	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return Payload{}, malformed(fmt.Errorf("ciphertext: %w", err))
	}
	if len(sealed) < c.aead.Overhead() {
		return Payload{}, malformed(errors.New("ciphertext too short"))
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Payload{}, malformed(errors.New("authentication failed"))
	}

	p, err := unmarshalPayload(plaintext)
	if err != nil {
		return Payload{}, unparsable(err)
	}
	return p, nil
}

// Checksum is the truncated BLAKE3 hash of requestID followed by the secret.
func (c *Codec) Checksum(requestID string) string {
	buf := make([]byte, 0, len(requestID)+len(c.secret))
	buf = append(buf, requestID...)
	buf = append(buf, c.secret...)
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:])[:ChecksumLength]
}

// VerifyChecksum compares in constant time.
func (c *Codec) VerifyChecksum(p Payload) bool {
	want := c.Checksum(p.RequestID)
	return subtle.ConstantTimeCompare([]byte(want), []byte(p.Checksum)) == 1
}
