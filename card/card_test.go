// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package card

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/taskagent"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               "Dice Agent",
		Description:        "Rolls dice",
		URL:                "http://localhost:3000/",
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             []a2a.AgentSkill{{ID: "dice-roll", Name: "Roll dice", Tags: []string{"dice"}}},
	}
}

func TestSignVerify(t *testing.T) {
	s, err := NewSigner(testKey, "card-key")
	if err != nil {
		t.Fatal(err)
	}

	original := testCard()
	signed, err := s.Sign(original)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(original.Signatures) != 0 {
		t.Error("Sign() modified its input")
	}
	if len(signed.Signatures) != 1 {
		t.Fatalf("signed card has %d signatures, want 1", len(signed.Signatures))
	}
	if err := s.Verify(signed); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	header, err := base64.RawURLEncoding.DecodeString(signed.Signatures[0].Protected)
	if err != nil {
		t.Fatal(err)
	}
	var h map[string]any
	if err := json.Unmarshal(header, &h); err != nil {
		t.Fatal(err)
	}
	if h["alg"] != "HS256" || h["kid"] != "card-key" {
		t.Errorf("protected header = %v", h)
	}
}

func TestVerifyAfterRoundTrip(t *testing.T) {
	s, _ := NewSigner(testKey, "")
	signed, err := s.Sign(testCard())
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(signed)
	if err != nil {
		t.Fatal(err)
	}
	var decoded a2a.AgentCard
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(&decoded); err != nil {
		t.Errorf("Verify() of decoded card error = %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	s, _ := NewSigner(testKey, "")
	other, _ := NewSigner([]byte(strings.Repeat("k", MinKeySize)), "")
	signed, err := s.Sign(testCard())
	if err != nil {
		t.Fatal(err)
	}

	tampered := signed.Clone()
	tampered.Description = "Rolls loaded dice"

	tests := []struct {
		name   string
		signer *Signer
		card   *a2a.AgentCard
		want   error
	}{
		{name: "unsigned", signer: s, card: testCard(), want: ErrNoSignature},
		{name: "tampered", signer: s, card: tampered, want: ErrInvalidSignature},
		{name: "other key", signer: other, card: signed, want: ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.signer.Verify(tt.card); !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewSignerShortKey(t *testing.T) {
	if _, err := NewSigner([]byte("short"), ""); err == nil {
		t.Error("NewSigner() expected error for short key")
	}
}

func TestPayloadIgnoresSignatures(t *testing.T) {
	c := testCard()
	want, err := Payload(c)
	if err != nil {
		t.Fatal(err)
	}
	c.Signatures = []a2a.AgentCardSignature{{Protected: "p", Signature: "s"}}
	got, err := Payload(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("Payload() changed with signatures:\n%s\n%s", got, want)
	}
}
