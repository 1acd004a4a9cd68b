package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func riffsCmd() *cobra.Command {
	riffs := &cobra.Command{
		Use:   "riffs",
		Short: "Manage riffs (conversations in an app)",
	}

	var appSlug string
	riffs.PersistentFlags().StringVar(&appSlug, "app", "", "App slug (required)")
	riffs.MarkPersistentFlagRequired("app")

	riffs.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List riffs in an app",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := bootstrap()
			if err != nil {
				return err
			}
			list, err := client.Riffs(cmd.Context(), appSlug)
			if err != nil {
				return describe(err)
			}
			if len(list) == 0 {
				fmt.Printf("no riffs in %s yet — `riff riffs create --app %s <name>`\n", appSlug, appSlug)
				return nil
			}
			fmt.Printf("%-38s %-28s %s\n", "ID", "NAME", "ACTIVE")
			for _, r := range list {
				active := "-"
				if r.LastActiveAt != nil {
					active = formatAge(*r.LastActiveAt)
				}
				fmt.Printf("%-38s %-28s %s\n", r.ID, r.Name, active)
			}
			return nil
		},
	})

	riffs.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Start a new riff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := bootstrap()
			if err != nil {
				return err
			}
			riff, err := client.CreateRiff(cmd.Context(), appSlug, args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Printf("created riff %s (%s)\n", riff.ID, riff.Name)
			fmt.Printf("open it: riff chat --app %s %s\n", appSlug, riff.ID)
			return nil
		},
	})

	riffs.AddCommand(&cobra.Command{
		Use:   "delete <riff-id>",
		Short: "Delete a riff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := bootstrap()
			if err != nil {
				return err
			}
			if err := client.DeleteRiff(cmd.Context(), appSlug, args[0]); err != nil {
				return describe(err)
			}
			dropCachedRiff(cfg, appSlug, args[0])
			fmt.Printf("deleted riff %s\n", args[0])
			return nil
		},
	})

	return riffs
}
