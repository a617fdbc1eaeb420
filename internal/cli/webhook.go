package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"strava-filter/internal/config"
	"strava-filter/internal/strava"
)

func newWebhookCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Strava push subscription",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "register",
			Short: "Subscribe the configured base URL to activity events",
			Args:  cobra.NoArgs,
			RunE: withSubscriptions(opts, func(cmd *cobra.Command, cfg *config.Config, client *strava.SubscriptionClient, args []string) error {
				sub, err := client.CreateSubscription(cmd.Context(), cfg.WebhookURL(), cfg.Strava.VerificationToken)
				if err != nil {
					return err
				}
				log.Info().Int64("subscription_id", sub.ID).Str("callback", sub.CallbackURL).Msg("webhook registered")
				fmt.Fprintf(cmd.OutOrStdout(), "Registered subscription %d -> %s\n", sub.ID, sub.CallbackURL)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List push subscriptions",
			Args:  cobra.NoArgs,
			RunE: withSubscriptions(opts, func(cmd *cobra.Command, cfg *config.Config, client *strava.SubscriptionClient, args []string) error {
				subs, err := client.ListSubscriptions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(subs) == 0 {
					fmt.Fprintln(out, "No subscriptions")
					return nil
				}
				for _, s := range subs {
					fmt.Fprintf(out, "%d\t%s\t%s\n", s.ID, s.CallbackURL, s.CreatedAt.Format("2006-01-02"))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a push subscription",
			Args:  cobra.ExactArgs(1),
			RunE: withSubscriptions(opts, func(cmd *cobra.Command, cfg *config.Config, client *strava.SubscriptionClient, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid subscription id %q", args[0])
				}
				if err := client.DeleteSubscription(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted subscription %d\n", id)
				return nil
			}),
		},
	)
	return cmd
}

type subscriptionFunc func(cmd *cobra.Command, cfg *config.Config, client *strava.SubscriptionClient, args []string) error

func withSubscriptions(opts *options, fn subscriptionFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(opts, cmd.OutOrStdout())
		if errors.Is(err, errConfigCreated) {
			return nil
		}
		if err != nil {
			return err
		}
		client := &strava.SubscriptionClient{
			BaseURL:      subscriptionBaseURL,
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
		}
		return fn(cmd, cfg, client, args)
	}
}

// subscriptionBaseURL is the API root for subscription calls; tests point it
// at a local server
var subscriptionBaseURL = strava.BaseURL
