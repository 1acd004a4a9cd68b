package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riffdeck/cli/internal/api"
)

func sendCmd() *cobra.Command {
	var appSlug string
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "send <riff-id> <message>",
		Short: "Send one message and print the agent's reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := bootstrap()
			if err != nil {
				return err
			}
			riffID := args[0]
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return fmt.Errorf("message is empty")
			}
			ctx := cmd.Context()

			// Event count before the send is the baseline: our own message
			// lands as one event, anything past that is the agent.
			before, err := client.Events(ctx, appSlug, riffID)
			if err != nil {
				return describe(err)
			}
			baseline := len(before)
			msgBaseline := 0
			if conv, err := client.Conversation(ctx, appSlug, riffID); err == nil {
				msgBaseline = len(conv.Messages)
			}

			if _, err := client.SendMessage(ctx, appSlug, riffID, text); err != nil {
				return describe(err)
			}

			msgs, err := waitForReply(ctx, client, cfg.ReconcileDelayDuration(), wait, appSlug, riffID, baseline, msgBaseline)
			if err != nil {
				return describe(err)
			}
			for _, m := range msgs {
				fmt.Printf("%s: %s\n", m.Role, m.Text())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&appSlug, "app", "", "App slug (required)")
	cmd.MarkFlagRequired("app")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for an agent reply")
	return cmd
}

// replyClient is the slice of the API the wait loop touches; tests stub it.
type replyClient interface {
	Events(ctx context.Context, appSlug, riffID string) ([]api.Event, error)
	Conversation(ctx context.Context, appSlug, riffID string) (*api.Conversation, error)
}

// waitForReply polls the event log until it grows past eventBaseline+1
// (the send itself counts as one event) or the wait expires, then returns
// the messages appended since msgBaseline.
func waitForReply(ctx context.Context, client replyClient, delay, wait time.Duration, appSlug, riffID string, eventBaseline, msgBaseline int) ([]api.Message, error) {
	deadline := time.Now().Add(wait)
	sleep := delay

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
		sleep = time.Second

		events, err := client.Events(ctx, appSlug, riffID)
		if err == nil && len(events) > eventBaseline+1 {
			break
		}
		if time.Now().After(deadline) {
			break
		}
	}

	conv, err := client.Conversation(ctx, appSlug, riffID)
	if err != nil {
		return nil, err
	}
	msgs := conv.Messages
	if msgBaseline < len(msgs) {
		return msgs[msgBaseline:], nil
	}
	return nil, nil
}
