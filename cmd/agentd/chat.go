// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	a2a "github.com/go-a2a/taskagent"
	"github.com/go-a2a/taskagent/agent"
	"github.com/go-a2a/taskagent/client"
	"github.com/go-a2a/taskagent/config"
)

// ChatCmd talks to a remote agent through a local model that calls its skills as tools.
type ChatCmd struct {
	Agent    string `help:"Base URL of the remote agent." default:"http://localhost:3000"`
	Provider string `help:"Model provider: gemini or echo (overrides agent.provider)."`
}

func (c *ChatCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config, func(cfg *config.Config) {
		if c.Provider != "" {
			cfg.Agent.Provider = c.Provider
		}
	})
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	remote := client.New(c.Agent,
		client.WithLogger(logger),
		client.WithInterceptors(client.LoggingInterceptor(logger), client.RetryInterceptor(client.DefaultRetryPolicy())),
	)
	runner, err := newChatRunner(ctx, cfg.Agent, remote, logger)
	if err != nil {
		return err
	}
	return chat(ctx, runner, os.Stdin, os.Stdout)
}

// newChatRunner builds a runner whose tools are the skills of the remote agent.
func newChatRunner(ctx context.Context, cfg config.AgentConfig, remote *client.Client, logger *slog.Logger) (*agent.Runner, error) {
	card, err := remote.AgentCard(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := client.SkillTools(card, remote)
	if err != nil {
		return nil, err
	}
	registry, err := agent.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}
	model, err := newModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return agent.NewRunner(model, registry,
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithRunnerLogger(logger),
	), nil
}

// chat reads one request per line from in until EOF or "exit" and writes the answers to out.
func chat(ctx context.Context, capability agent.Capability, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "exit":
			return nil
		}

		res, err := capability.Run(ctx, agent.Input{
			Role:  a2a.RoleUser,
			Parts: []a2a.Part{a2a.NewTextPart(line)},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "AI: %s\n", res.Text)
	}
}
