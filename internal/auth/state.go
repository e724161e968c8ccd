package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	errStateExpired = errors.New("auth state: expired")
	errStateInvalid = errors.New("auth state: invalid")
)

// StateCodec encodes and decodes the state parameter used during the OIDC
// login flow. The payload is AES-GCM encrypted so the callback can trust the
// nonce and return URL it carries without server-side storage.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// StatePayload is the data round-tripped through the identity provider.
type StatePayload struct {
	Nonce     string    `json:"n"`
	ReturnURL string    `json:"r"`
	IssuedAt  time.Time `json:"iat"`
}

// NewStateCodec constructs a StateCodec using the provided symmetric key and lifetime.
func NewStateCodec(key []byte, ttl time.Duration, now func() time.Time) (*StateCodec, error) {
	length := len(key)
	if length != 16 && length != 24 && length != 32 {
		return nil, fmt.Errorf("auth state: key must be 16, 24, or 32 bytes, got %d", length)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &StateCodec{key: key, ttl: ttl, now: now}, nil
}

// NewNonce returns a random value suitable for the OIDC nonce claim.
func NewNonce() (string, error) {
	buf := make([]byte, 24)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("auth state: generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Encode encrypts the supplied payload into a compact state string.
func (c *StateCodec) Encode(payload StatePayload) (string, error) {
	if strings.TrimSpace(payload.Nonce) == "" {
		return "", errors.New("auth state: nonce is required")
	}
	payload.IssuedAt = c.now().UTC()

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("auth state: marshal payload: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("auth state: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("auth state: init gcm: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("auth state: generate iv: %w", err)
	}

	sealed := gcm.Seal(iv, iv, raw, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode decrypts the state string back into a payload while enforcing expiry.
func (c *StateCodec) Decode(token string) (StatePayload, error) {
	var payload StatePayload
	if strings.TrimSpace(token) == "" {
		return payload, errStateInvalid
	}

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return payload, errStateInvalid
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return payload, errStateInvalid
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return payload, errStateInvalid
	}
	if len(sealed) < gcm.NonceSize() {
		return payload, errStateInvalid
	}

	raw, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return payload, errStateInvalid
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, errStateInvalid
	}
	if payload.Nonce == "" || payload.IssuedAt.IsZero() {
		return payload, errStateInvalid
	}
	if c.now().UTC().After(payload.IssuedAt.Add(c.ttl)) {
		return payload, errStateExpired
	}

	return payload, nil
}
