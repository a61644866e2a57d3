package main

import (
	"context"
	"log/slog"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/hermeshr/tenancy/internal/bootstrap"
	"github.com/hermeshr/tenancy/pkg/config"
	"github.com/hermeshr/tenancy/pkg/events"
	"github.com/hermeshr/tenancy/pkg/redis"
)

const (
	envFileFlag = "env-file"
	outputFlag  = "output"
)

// globalFlags are registered once on the root command and inherited by
// every subcommand.
type globalFlags struct {
	envFile *cobraflags.StringFlag
	output  *cobraflags.StringFlag
}

func newGlobalFlags() *globalFlags {
	return &globalFlags{
		envFile: &cobraflags.StringFlag{
			Name:       envFileFlag,
			Value:      ".env",
			Usage:      "Environment file loaded before reading configuration",
			Persistent: true,
		},
		output: &cobraflags.StringFlag{
			Name:       outputFlag,
			Value:      "text",
			Usage:      "Output format (text, json)",
			Persistent: true,
		},
	}
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(newGlobalFlags())
}

func buildRootCommand(g *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Administer tenant schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobraflags.Register(root, g.envFile, g.output)

	root.AddCommand(
		newListCommand(g),
		newStatusCommand(g),
		newCreateCommand(g),
		newMigrateCommand(g),
		newDropCommand(g),
	)
	return root
}

type ctlConfig struct {
	bootstrap.Config
	Redis  redis.Config
	Events events.StreamConfig
}

// session is the connected state one command runs with.
type session struct {
	cfg   ctlConfig
	log   *slog.Logger
	stack *bootstrap.Stack
}

func openSession(ctx context.Context, g *globalFlags) (*session, error) {
	var cfg ctlConfig
	if err := config.Load(&cfg, g.envFile.GetString()); err != nil {
		return nil, err
	}

	log := bootstrap.NewLogger(cfg.Config, "tenantctl")
	stack, err := bootstrap.Open(ctx, cfg.Config, log)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, stack: stack}, nil
}

func (s *session) Close() { s.stack.Close() }

// publish sends a lifecycle event to tenantd instead of acting directly.
func (s *session) publish(ctx context.Context, t events.Type, tenantID string) (string, error) {
	client, err := redis.Connect(ctx, s.cfg.Redis)
	if err != nil {
		return "", err
	}
	defer client.Close()

	e, err := events.NewEvent(t, tenantID, nil)
	if err != nil {
		return "", err
	}
	return events.NewPublisher(client, s.cfg.Events.Stream).Publish(ctx, e)
}
