// Package cli wires the canvass commands: the HTTP server, the weekly
// digest, the Mailchimp sync, migrations and fixture seeding.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/votegrid/canvass/internal/database"
)

// RootCmd is the base command for the canvass binary.
var RootCmd = &cobra.Command{
	Use:   "canvass",
	Short: "Campaign site backend: lead capture, donations and analytics",
	Long: `canvass is the backend for the campaign marketing site.

It captures leads and volunteer signups, logs donation clicks, and serves
the password-protected analytics dashboard the campaign team uses.`,
	SilenceUsage: true,
}

// Injectable for tests.
var (
	connectDatabase = func(url string) error { return database.ConnectWithURL(url) }
	closeDatabase   = database.Close
)

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
