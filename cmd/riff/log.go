package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/config"
	"github.com/riffdeck/cli/internal/store"
)

func logCmd() *cobra.Command {
	var appSlug string
	cmd := &cobra.Command{
		Use:   "log [riff-id]",
		Short: "Replay a cached transcript without a network",
		Long:  "Prints the last transcript the chat view mirrored locally. Without a\nriff id, lists the cached riffs instead.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cache, err := store.Open(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("open transcript cache: %w", err)
			}
			defer cache.Close()

			if len(args) == 0 {
				return listCached(cache, appSlug)
			}
			return printTranscript(cache, appSlug, args[0])
		},
	}
	cmd.Flags().StringVar(&appSlug, "app", "", "Limit to one app's riffs")
	return cmd
}

func listCached(cache *store.Store, appSlug string) error {
	riffs, err := cache.ListRiffs(appSlug)
	if err != nil {
		return err
	}
	if len(riffs) == 0 {
		fmt.Println("no cached riffs — transcripts are mirrored while `riff chat` is open")
		return nil
	}
	fmt.Printf("%-24s %-38s %-28s %s\n", "APP", "ID", "NAME", "SYNCED")
	for _, r := range riffs {
		fmt.Printf("%-24s %-38s %-28s %s\n", r.AppSlug, r.RiffID, r.Name, formatAge(r.SyncedAt))
	}
	return nil
}

func printTranscript(cache *store.Store, appSlug, riffID string) error {
	if appSlug == "" {
		return fmt.Errorf("--app is required with a riff id")
	}
	msgs, err := cache.Transcript(appSlug, riffID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("no cached transcript for this riff")
		return nil
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s\n%s\n\n", m.SentAt.Local().Format("2006-01-02 15:04"), m.Role, m.Content)
	}
	return nil
}
