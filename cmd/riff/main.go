package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/api"
	"github.com/riffdeck/cli/internal/config"
	"github.com/riffdeck/cli/internal/identity"
	"github.com/riffdeck/cli/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:          "riff",
		Short:        "riffdeck — talk to your app's agent from the terminal",
		Long:         "Creates apps, starts riffs, and keeps a conversation in sync with the\nriffdeck server by polling its event log — no push channel required.",
		SilenceUsage: true,
	}

	root.AddCommand(
		appsCmd(),
		riffsCmd(),
		chatCmd(),
		sendCmd(),
		logCmd(),
		initCmd(),
		doctorCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config, initializes logging, ensures a caller identity,
// and builds the API client. Every network-facing command starts here.
func bootstrap() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if p := cfg.LogPath(); p != "" {
		if err := cfg.EnsureDir(); err != nil {
			return nil, nil, err
		}
	}
	if err := logger.Init(cfg.Logging.Level, cfg.LogPath()); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	id, err := identity.NewStore(cfg.Dir).Ensure()
	if err != nil {
		return nil, nil, err
	}
	client := api.New(api.Config{
		BaseURL:           cfg.APIURL,
		UserUUID:          id,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	return cfg, client, nil
}

// describe translates the client's error taxonomy into messages a terminal
// user can act on. Unknown errors pass through unchanged.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var netErr *api.NetworkError
	var apiErr *api.APIError
	var malformed *api.MalformedResponseError
	switch {
	case errors.As(err, &netErr):
		return fmt.Errorf("cannot reach the riffdeck server: %v", netErr.Cause)
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusNotFound:
			return errors.New("not found — check the app slug and riff id")
		case http.StatusForbidden, http.StatusUnauthorized:
			return errors.New("the server rejected this identity for that resource")
		default:
			return err
		}
	case errors.As(err, &malformed):
		return fmt.Errorf("the server sent a response this client cannot read: %v", malformed.Cause)
	}
	return err
}
