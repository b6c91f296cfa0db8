// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package card signs and verifies agent cards with detached JWS signatures.
//
// The signed payload is the card encoded without its signatures member. A signature is published
// as the protected header and signature segments of the compact serialization; the payload
// segment is left out and rebuilt from the card on verification.
package card

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"

	a2a "github.com/go-a2a/taskagent"
)

// MinKeySize is the minimum length of a signing key in bytes.
const MinKeySize = 32

var (
	// ErrNoSignature is returned when verifying a card without signatures.
	ErrNoSignature = errors.New("agent card is not signed")
	// ErrInvalidSignature is returned when no signature of a card verifies.
	ErrInvalidSignature = errors.New("agent card signature is invalid")
)

// Signer signs agent cards with an HMAC key.
type Signer struct {
	key   []byte
	keyID string
}

// NewSigner returns a Signer using key for HS256 signatures. keyID, when set, is recorded in the
// protected header.
func NewSigner(key []byte, keyID string) (*Signer, error) {
	if len(key) < MinKeySize {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeySize, len(key))
	}
	return &Signer{key: key, keyID: keyID}, nil
}

// Payload returns the bytes a signature of c covers.
func Payload(c *a2a.AgentCard) ([]byte, error) {
	unsigned := c.Clone()
	unsigned.Signatures = nil
	return json.Marshal(unsigned, json.Deterministic(true))
}

// Sign returns a copy of c carrying a single signature by s. Existing signatures are replaced.
func (s *Signer) Sign(c *a2a.AgentCard) (*a2a.AgentCard, error) {
	payload, err := Payload(c)
	if err != nil {
		return nil, fmt.Errorf("encode agent card: %w", err)
	}

	var suboptions []jws.WithKeySuboption
	if s.keyID != "" {
		headers := jws.NewHeaders()
		if err := headers.Set(jws.KeyIDKey, s.keyID); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
		suboptions = append(suboptions, jws.WithProtectedHeaders(headers))
	}

	compact, err := jws.Sign(payload, jws.WithKey(jwa.HS256(), s.key, suboptions...))
	if err != nil {
		return nil, fmt.Errorf("sign agent card: %w", err)
	}
	protected, _, signature, err := splitCompact(compact)
	if err != nil {
		return nil, err
	}

	signed := c.Clone()
	signed.Signatures = []a2a.AgentCardSignature{{Protected: protected, Signature: signature}}
	return signed, nil
}

// Verify reports whether at least one signature of c was made by s.
func (s *Signer) Verify(c *a2a.AgentCard) error {
	if len(c.Signatures) == 0 {
		return ErrNoSignature
	}
	payload, err := Payload(c)
	if err != nil {
		return fmt.Errorf("encode agent card: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)

	for _, sig := range c.Signatures {
		compact := sig.Protected + "." + encoded + "." + sig.Signature
		if _, err := jws.Verify([]byte(compact), jws.WithKey(jwa.HS256(), s.key)); err == nil {
			return nil
		}
	}
	return ErrInvalidSignature
}

func splitCompact(compact []byte) (protected, payload, signature string, err error) {
	parts := strings.Split(string(compact), ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed compact JWS: %d segments", len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}
