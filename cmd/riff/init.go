package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/config"
	"github.com/riffdeck/cli/internal/identity"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the ~/.riffdeck directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDir(); err != nil {
				return err
			}

			configPath := filepath.Join(cfg.Dir, "config.yaml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.Save(cfg); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", configPath)
			} else {
				fmt.Printf("config exists: %s\n", configPath)
			}

			id, err := identity.NewStore(cfg.Dir).Ensure()
			if err != nil {
				return err
			}
			fmt.Printf("identity: %s\n", id)
			fmt.Printf("server:   %s\n", cfg.APIURL)
			return nil
		},
	}
}
