package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func appsCmd() *cobra.Command {
	apps := &cobra.Command{
		Use:   "apps",
		Short: "Manage apps (projects on the server)",
	}

	apps.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := bootstrap()
			if err != nil {
				return err
			}
			list, err := client.Apps(cmd.Context())
			if err != nil {
				return describe(err)
			}
			if len(list) == 0 {
				fmt.Println("no apps yet — `riff apps create <name>` to start one")
				return nil
			}
			fmt.Printf("%-24s %-28s %6s  %s\n", "SLUG", "NAME", "RIFFS", "CREATED")
			for _, app := range list {
				fmt.Printf("%-24s %-28s %6d  %s\n", app.Slug, app.Name, app.RiffCount, formatAge(app.CreatedAt))
			}
			return nil
		},
	})

	apps.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := bootstrap()
			if err != nil {
				return err
			}
			app, err := client.CreateApp(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Printf("created app %s (%s)\n", app.Slug, app.Name)
			return nil
		},
	})

	apps.AddCommand(&cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an app and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := bootstrap()
			if err != nil {
				return err
			}
			if err := client.DeleteApp(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}
			fmt.Printf("deleted app %s\n", args[0])
			return nil
		},
	})

	return apps
}

// formatAge renders a timestamp as a coarse relative age, "2h ago" style.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
