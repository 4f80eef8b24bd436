package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/artpar/bandgate/bootstrap"
	"github.com/spf13/cobra"
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Manage artist subscriptions",
	Long: `Manage artist subscriptions.

When the backend cannot be reached, subscribe, unsubscribe and list fall
back to a local mock subscription set. Use 'sync' to replay that set
against the backend once it is back.

Examples:
  bandgate subscriptions list
  bandgate subscriptions add 42
  bandgate subscriptions remove 42
  bandgate subscriptions concerts
  bandgate subscriptions sync`,
}

var subscriptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE:  runSubscriptionsList,
}

var subscriptionsAddCmd = &cobra.Command{
	Use:   "add <arti-profile-id>",
	Short: "Subscribe to an artist",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsAdd,
}

var subscriptionsRemoveCmd = &cobra.Command{
	Use:   "remove <arti-profile-id>",
	Short: "Unsubscribe from an artist",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsRemove,
}

var subscriptionsConcertsCmd = &cobra.Command{
	Use:   "concerts",
	Short: "Show concerts of subscribed artists",
	RunE:  runSubscriptionsConcerts,
}

var subscriptionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay local mock subscriptions against the backend",
	RunE:  runSubscriptionsSync,
}

func init() {
	rootCmd.AddCommand(subscriptionsCmd)

	subscriptionsCmd.AddCommand(subscriptionsListCmd)
	subscriptionsCmd.AddCommand(subscriptionsAddCmd)
	subscriptionsCmd.AddCommand(subscriptionsRemoveCmd)
	subscriptionsCmd.AddCommand(subscriptionsConcertsCmd)
	subscriptionsCmd.AddCommand(subscriptionsSyncCmd)
}

func parseArtistID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid artist id %q", arg)
	}
	return id, nil
}

func runSubscriptionsList(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		records, err := c.Subscriptions.ListSubscriptions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No subscriptions.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SUBSCRIPTION\tARTIST\tMEMBER\tCREATED")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", r.SubscriptionID, r.ArtiProfileID, r.MemberID, r.CreatedAt)
		}
		return w.Flush()
	})
}

func runSubscriptionsAdd(cmd *cobra.Command, args []string) error {
	id, err := parseArtistID(args[0])
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		record, err := c.Subscriptions.Subscribe(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), record)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to artist %d (subscription %d)\n", record.ArtiProfileID, record.SubscriptionID)
		return nil
	})
}

func runSubscriptionsRemove(cmd *cobra.Command, args []string) error {
	id, err := parseArtistID(args[0])
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		if err := c.Subscriptions.Unsubscribe(ctx, id); err != nil {
			return fmt.Errorf("failed to unsubscribe: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed from artist %d\n", id)
		return nil
	})
}

func runSubscriptionsConcerts(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		feed, err := c.Subscriptions.GetSubscribedConcerts(ctx)
		if err != nil {
			return fmt.Errorf("failed to load subscribed concerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, feed)
		}
		if len(feed.Artists) == 0 {
			fmt.Fprintln(out, "No subscribed artists.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tCONCERT\tTITLE\tPLACE\tBOOKING")
		for _, a := range feed.Artists {
			if len(a.Concerts) == 0 {
				fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", a.ArtistName)
				continue
			}
			for _, concert := range a.Concerts {
				booking := "-"
				if concert.HasBooking() {
					booking = concert.BookingSchedule
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", a.ArtistName, concert.ConcertID, concert.Title, concert.Place, booking)
			}
		}
		return w.Flush()
	})
}

func runSubscriptionsSync(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		result, err := c.Subscriptions.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("failed to sync subscriptions: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Synced %d, pending %d\n", len(result.Synced), len(result.Pending))
		return nil
	})
}
