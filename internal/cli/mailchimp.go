package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/mailchimp"
)

var (
	mailchimpDatabaseURL string
	mailchimpDays        int
)

var mailchimpCmd = &cobra.Command{
	Use:   "sync-mailchimp",
	Short: "Push recent leads into the Mailchimp audience",
	Long: `Upsert every lead created in the last N days into the configured
Mailchimp audience. Upserts are idempotent, so overlapping runs are safe.

Examples:
  canvass sync-mailchimp
  canvass sync-mailchimp --days 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMailchimpSync()
	},
}

func runMailchimpSync() error {
	cfg, err := config.LoadWithOverrides(mailchimpDatabaseURL, "")
	if err != nil {
		return err
	}

	client := mailchimp.New(cfg.MailchimpAPIKey, cfg.MailchimpServerPrefix, cfg.MailchimpAudienceID)
	if !client.Enabled() {
		return fmt.Errorf("mailchimp credentials are not configured")
	}

	if err := connectDatabase(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = closeDatabase() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	synced, err := mailchimp.SyncSince(ctx, database.DB, client, now.AddDate(0, 0, -mailchimpDays), now)
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d leads to Mailchimp.\n", synced)
	return nil
}

func init() {
	mailchimpCmd.Flags().StringVarP(&mailchimpDatabaseURL, "database-url", "d", "", "PostgreSQL connection URL")
	mailchimpCmd.Flags().IntVar(&mailchimpDays, "days", 7, "Sync leads created in the last N days")
	RootCmd.AddCommand(mailchimpCmd)
}
