package main

import (
	"context"
	"fmt"

	"github.com/artpar/bandgate/bootstrap"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for backend calls",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE:  runLogout,
}

var clientIDCmd = &cobra.Command{
	Use:   "client-id",
	Short: "Print the Google OAuth client id",
	RunE:  runClientID,
}

var loginToken string

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(clientIDCmd)

	loginCmd.Flags().StringVar(&loginToken, "token", "", "access token (required)")
	loginCmd.MarkFlagRequired("token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		if err := c.Session.Login(ctx, loginToken); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		if err := c.Session.Logout(ctx); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	})
}

func runClientID(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		id, err := c.ClientID.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}
