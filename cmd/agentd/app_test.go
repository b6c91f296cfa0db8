// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/card"
	"github.com/go-a2a/taskagent/config"
)

const signingKey = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Agent.Provider = config.ProviderEcho
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(ctx, cfg, logger, io.Discard)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return a
}

func rpc(t *testing.T, h http.Handler, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestAppSendAndGet(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Store.Backend = backend
			cfg.Store.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
			a := startApp(t, cfg)

			status, resp := rpc(t, a.handler, `{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{"id":"t1","message":{"role":"user","parts":[{"type":"text","text":"Roll a die"}]}}}`)
			if status != http.StatusOK {
				t.Fatalf("send status = %d, response %v", status, resp)
			}
			result := resp["result"].(map[string]any)
			if result["status"] != "completed" {
				t.Errorf("status = %v, want completed", result["status"])
			}
			artifact := result["artifacts"].([]any)[0].(map[string]any)
			wantArtifact := map[string]any{
				"name":        "dice",
				"description": "サイコロの目",
				"index":       float64(0),
				"parts":       []any{map[string]any{"type": "text", "text": "Roll a die", "metadata": map[string]any{}}},
			}
			if diff := cmp.Diff(wantArtifact, artifact); diff != "" {
				t.Errorf("artifact mismatch (-want +got):\n%s", diff)
			}

			status, resp = rpc(t, a.handler, `{"jsonrpc":"2.0","id":2,"method":"tasks/get","params":{"id":"t1","historyLength":5}}`)
			if status != http.StatusOK {
				t.Fatalf("get status = %d, response %v", status, resp)
			}
			result = resp["result"].(map[string]any)
			if state := result["status"].(map[string]any)["state"]; state != "completed" {
				t.Errorf("state = %v, want completed", state)
			}
			if history := result["history"].([]any); len(history) != 2 {
				t.Errorf("history has %d messages, want 2", len(history))
			}
		})
	}
}

func TestAppMetrics(t *testing.T) {
	a := startApp(t, testConfig(t))
	rpc(t, a.handler, `{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{"id":"t1","message":{"role":"user","parts":[{"type":"text","text":"Roll"}]}}}`)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, name := range []string{"a2a_tasks_created", "a2a_rpc_request_duration"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metrics do not expose %s", name)
		}
	}
}

func TestAppSignedCard(t *testing.T) {
	cfg := testConfig(t)
	cfg.Card.SigningKey = signingKey
	a := startApp(t, cfg)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var published a2a.AgentCard
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatal(err)
	}
	if published.Name != "Dice Agent" || len(published.Signatures) != 1 {
		t.Errorf("card = %s with %d signatures, want Dice Agent with 1", published.Name, len(published.Signatures))
	}

	signer, err := card.NewSigner([]byte(signingKey), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := signer.Verify(&published); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestAppRejectsShortSigningKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Card.SigningKey = "short"
	if _, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), io.Discard); err == nil {
		t.Error("newApp() expected error for a short signing key")
	}
}

func TestServeOverrides(t *testing.T) {
	cfg := config.Default()
	cmd := ServeCmd{Addr: ":9999", Provider: config.ProviderEcho, Store: config.BackendMemory, LogLevel: "debug"}
	cmd.overrides(cfg)

	got := []string{cfg.Server.Addr, cfg.Agent.Provider, cfg.Store.Backend, cfg.Log.Level}
	want := []string{":9999", config.ProviderEcho, config.BackendMemory, "debug"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
