package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/api"
	"github.com/riffdeck/cli/internal/config"
	"github.com/riffdeck/cli/internal/identity"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, identity, and server reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Println("riff doctor")
			fmt.Println()

			fmt.Println("Config:")
			fmt.Printf("  dir:             %s\n", cfg.Dir)
			fmt.Printf("  api_url:         %s\n", cfg.APIURL)
			fmt.Printf("  poll_interval:   %s\n", cfg.PollIntervalDuration())
			fmt.Printf("  reconcile_delay: %s\n", cfg.ReconcileDelayDuration())
			fmt.Println()

			fmt.Println("Identity:")
			id, err := identity.NewStore(cfg.Dir).Load()
			switch {
			case err != nil:
				fmt.Printf("  broken: %v\n", err)
			case id == "":
				fmt.Println("  none yet — generated on first use")
			default:
				fmt.Printf("  %s\n", id)
			}
			if env := os.Getenv("RIFFDECK_USER_UUID"); env != "" {
				fmt.Printf("  RIFFDECK_USER_UUID override: %s\n", env)
			}
			fmt.Println()

			fmt.Println("Cache:")
			if _, err := os.Stat(cfg.DBPath()); err == nil {
				fmt.Printf("  %s\n", cfg.DBPath())
			} else {
				fmt.Println("  none yet — created by `riff chat`")
			}
			fmt.Println()

			fmt.Println("Server:")
			client := api.New(api.Config{BaseURL: cfg.APIURL, UserUUID: id, Timeout: cfg.Timeout()})
			_, err = client.Apps(cmd.Context())
			var netErr *api.NetworkError
			var apiErr *api.APIError
			switch {
			case err == nil:
				fmt.Printf("  reachable at %s\n", cfg.APIURL)
			case errors.As(err, &netErr):
				fmt.Printf("  not reachable at %s (%v)\n", cfg.APIURL, netErr.Cause)
			case errors.As(err, &apiErr):
				fmt.Printf("  reachable at %s but returned HTTP %d\n", cfg.APIURL, apiErr.Status)
			default:
				fmt.Printf("  %v\n", err)
			}

			return nil
		},
	}
}
