// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the agent server configuration from YAML.
//
// Example:
//
//	server:
//	  addr: ":3000"
//	agent:
//	  provider: gemini
//	  api_key: ${GEMINI_API_KEY}
//	  timeout: 60s
//	store:
//	  backend: sqlite
//	  dsn: ${TASK_DB:-file:tasks.db}
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	a2a "github.com/go-a2a/taskagent"
)

// Agent providers.
const (
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Agent     AgentConfig     `yaml:"agent"`
	Store     StoreConfig     `yaml:"store"`
	Card      CardConfig      `yaml:"card"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// ShutdownTimeout bounds the graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// AgentConfig configures the model behind the agent and its run limits.
type AgentConfig struct {
	// Provider selects the model: "gemini" or "echo".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKey defaults to GEMINI_API_KEY, then GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// MaxSteps is the number of model rounds allowed for one message.
	MaxSteps int           `yaml:"max_steps"`
	Timeout  time.Duration `yaml:"timeout"`

	ArtifactName        string `yaml:"artifact_name"`
	ArtifactDescription string `yaml:"artifact_description"`
}

// StoreConfig selects the task store.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// CardConfig is the published agent card and its signing key.
type CardConfig struct {
	a2a.AgentCard `yaml:",inline"`

	// SigningKey enables card signatures when set.
	SigningKey string `yaml:"signing_key"`
	KeyID      string `yaml:"key_id"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// TelemetryConfig enables metrics and tracing.
type TelemetryConfig struct {
	Metrics bool `yaml:"metrics"`
	// Trace is "none" or "stdout".
	Trace string `yaml:"trace"`
}

// Default returns the configuration used for any value a file leaves out.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":3000",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		Agent: AgentConfig{
			Provider:            ProviderGemini,
			Model:               "gemini-2.5-flash",
			APIKey:              envAPIKey(),
			MaxSteps:            5,
			Timeout:             60 * time.Second,
			ArtifactName:        "dice",
			ArtifactDescription: "サイコロの目",
		},
		Store: StoreConfig{
			Backend: BackendMemory,
		},
		Card: CardConfig{
			AgentCard: defaultCard(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
			Trace:   "none",
		},
	}
}

// envAPIKey returns the Gemini key from GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func envAPIKey() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func defaultCard() a2a.AgentCard {
	return a2a.AgentCard{
		Name:        "Dice Agent",
		Description: "サイコロを振るエージェント",
		URL:         "http://localhost:3000",
		Provider: &a2a.AgentProvider{
			Organization: "azukiazusa",
			URL:          "https://azukiazusa.dev",
		},
		Version: "1.0.0",
		Authentication: a2a.AgentAuthentication{
			Schemes: []string{},
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{{
			ID:          "dice-roll",
			Name:        "サイコロを振る",
			Description: "サイコロを振ってランダムな値を返すエージェントです。サイコロの目は1から6までの整数です。",
			Tags:        []string{"dice", "random"},
			Examples: []string{
				"サイコロを振ってください。",
				"1から6までの整数を返してください。",
			},
			InputModes:  []string{"text/plain"},
			OutputModes: []string{"text/plain"},
		}},
	}
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Server.ShutdownTimeout < 0 || c.Server.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("server timeouts cannot be negative"))
	}

	switch c.Agent.Provider {
	case ProviderGemini:
		if c.Agent.APIKey == "" {
			errs = append(errs, errors.New("agent.api_key is required for the gemini provider"))
		}
	case ProviderEcho:
	default:
		errs = append(errs, fmt.Errorf("agent.provider %q is not one of gemini, echo", c.Agent.Provider))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, errors.New("agent.max_steps must be at least 1"))
	}
	if c.Agent.Timeout <= 0 {
		errs = append(errs, errors.New("agent.timeout must be positive"))
	}
	if c.Agent.ArtifactName == "" {
		errs = append(errs, errors.New("agent.artifact_name is required"))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of memory, sqlite", c.Store.Backend))
	}

	if err := c.Card.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("card: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Telemetry.Trace {
	case "", "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("telemetry.trace %q is not one of none, stdout", c.Telemetry.Trace))
	}

	return errors.Join(errs...)
}
