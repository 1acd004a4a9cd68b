package main

import (
	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/config"
	"github.com/riffdeck/cli/internal/logger"
	"github.com/riffdeck/cli/internal/riffsync"
	"github.com/riffdeck/cli/internal/store"
	"github.com/riffdeck/cli/internal/ui"
)

func chatCmd() *cobra.Command {
	var appSlug string
	cmd := &cobra.Command{
		Use:   "chat <riff-id>",
		Short: "Open an interactive chat on a riff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := bootstrap()
			if err != nil {
				return err
			}
			riffID := args[0]

			focus := riffsync.NewFocusSignal()
			session := riffsync.New(client, appSlug, riffID, riffsync.Options{
				PollInterval:   cfg.PollIntervalDuration(),
				ReconcileDelay: cfg.ReconcileDelayDuration(),
				MaxPollBackoff: cfg.MaxPollBackoffDuration(),
				Visibility:     focus,
				OnChange:       ui.Notify,
			})

			cache := openCache(cfg)
			if cache != nil {
				defer cache.Close()
			}

			return ui.Run(session, focus, cache, appSlug, riffID)
		},
	}
	cmd.Flags().StringVar(&appSlug, "app", "", "App slug (required)")
	cmd.MarkFlagRequired("app")
	return cmd
}

// openCache opens the local transcript cache. A broken cache degrades the
// chat to online-only rather than failing it.
func openCache(cfg *config.Config) *store.Store {
	if err := cfg.EnsureDir(); err != nil {
		logger.Warn("cache unavailable", "error", err)
		return nil
	}
	cache, err := store.Open(cfg.DBPath())
	if err != nil {
		logger.Warn("cache unavailable", "path", cfg.DBPath(), "error", err)
		return nil
	}
	return cache
}

// dropCachedRiff removes a deleted riff's transcript from the local cache.
// Best effort: the server copy is already gone.
func dropCachedRiff(cfg *config.Config, appSlug, riffID string) {
	cache := openCache(cfg)
	if cache == nil {
		return
	}
	defer cache.Close()
	if err := cache.DeleteRiff(appSlug, riffID); err != nil {
		logger.Warn("drop cached riff", "riff", riffID, "error", err)
	}
}
