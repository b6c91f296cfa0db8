// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads the configuration file at path over [Default], applies overrides and validates the
// result. An empty path yields the defaults. Variables from .env files next to the file and in
// the working directory are loaded first; variables already set in the environment win.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	if err := LoadDotEnv(path); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, expanding environment references in every scalar value.
// Members absent from data keep their value in cfg.
func Parse(data []byte, cfg *Config) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if root.Kind == 0 {
		return nil
	}
	expandNode(&root)

	if err := root.Decode(cfg); err != nil {
		return err
	}
	return nil
}

func expandNode(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if expanded := ExpandEnv(n.Value); expanded != n.Value {
			n.Value = expanded
			// let the target type decide how to read the expanded text
			if n.Style == 0 {
				n.Tag = ""
			}
		}
		return
	}
	for _, c := range n.Content {
		expandNode(c)
	}
}

// ExpandEnv replaces ${VAR} with the value of VAR and ${VAR:-default} with the value of VAR, or
// default when VAR is unset or empty.
func ExpandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}

// LoadDotEnv loads .env from the directory of configPath and from the working directory.
// Missing files are skipped and existing variables are not overwritten.
func LoadDotEnv(configPath string) error {
	files := []string{".env"}
	if configPath != "" {
		if dir := filepath.Dir(configPath); dir != "." {
			files = append([]string{filepath.Join(dir, ".env")}, files...)
		}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}
