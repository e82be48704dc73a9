package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/api"
	"github.com/septivank/trackmyfish-client/internal/config"
	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/store"
)

// runtime carries what every command needs once configuration is loaded
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
	out    io.Writer
}

func (rt *runtime) init(out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.client = client
	rt.out = out
	return nil
}

func (rt *runtime) fishStore() *store.FishStore {
	return store.NewFishStore(rt.client, nil, rt.logger)
}

func (rt *runtime) tankStore() *store.TankStatisticStore {
	return store.NewTankStatisticStore(rt.client, nil, rt.logger)
}

func (rt *runtime) monitor() *health.Monitor {
	return health.NewMonitor(rt.client, rt.cfg.Heartbeat.UpStatus, rt.logger)
}

func newAPIClient(cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	return api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.RequestTimeout,
		UserAgent: cfg.API.UserAgent,
	}, logger)
}

func newRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:          "tankclient",
		Short:        "Track aquarium fish and water quality against a trackmyfish server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd.OutOrStdout())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newFishCommand(rt),
		newTankCommand(rt),
		newHeartbeatCommand(rt),
		newTriggerCommand(rt),
		newWatchCommand(rt),
	)

	return root
}
