package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/digest"
	"github.com/votegrid/canvass/internal/notify"
)

var digestDatabaseURL string

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Email the weekly lead digest",
	Long: `Build the trailing-week lead digest and email it to the addresses
in digest_to (comma-separated). Meant to run from cron every Monday.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDigest()
	},
}

func runDigest() error {
	cfg, err := config.LoadWithOverrides(digestDatabaseURL, "")
	if err != nil {
		return err
	}

	recipients := splitRecipients(cfg.DigestTo)
	if len(recipients) == 0 {
		return fmt.Errorf("digest_to is not configured")
	}

	mailer := notify.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	if !mailer.Enabled() {
		return fmt.Errorf("resend_api_key is not configured")
	}

	if err := connectDatabase(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = closeDatabase() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return digest.Run(ctx, database.DB, mailer, recipients, time.Now().UTC())
}

func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func init() {
	digestCmd.Flags().StringVarP(&digestDatabaseURL, "database-url", "d", "", "PostgreSQL connection URL")
	RootCmd.AddCommand(digestCmd)
}
