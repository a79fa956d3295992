package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/models"
)

var seedDatabaseURL string

// seedFixtures mirrors the YAML fixture layout.
type seedFixtures struct {
	Leads []struct {
		Name     string  `yaml:"name"`
		Email    string  `yaml:"email"`
		Phone    *string `yaml:"phone"`
		SMSOptIn bool    `yaml:"smsOptIn"`
		Locale   string  `yaml:"locale"`
		Source   string  `yaml:"source"`
	} `yaml:"leads"`
	Volunteers []struct {
		FirstName    string  `yaml:"firstName"`
		LastName     string  `yaml:"lastName"`
		Email        string  `yaml:"email"`
		Phone        *string `yaml:"phone"`
		Zip          *string `yaml:"zip"`
		Interest     *string `yaml:"interest"`
		UpdatesOptIn *bool   `yaml:"updatesOptIn"`
		SMSOptIn     bool    `yaml:"smsOptIn"`
		SourcePath   *string `yaml:"sourcePath"`
		Locale       string  `yaml:"locale"`
	} `yaml:"volunteers"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <fixtures.yaml>",
	Short: "Load lead and volunteer fixtures from a YAML file",
	Long: `Load development fixtures into the database.

The file carries two optional lists, "leads" and "volunteers", using the
same field names as the public API payloads.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(args[0])
	},
}

func runSeed(path string) error {
	fixtures, err := loadFixtures(path)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(seedDatabaseURL, "")
	if err != nil {
		return err
	}
	if err := connectDatabase(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = closeDatabase() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, l := range fixtures.Leads {
		in := models.LeadInput{
			Name:     l.Name,
			Email:    l.Email,
			Phone:    l.Phone,
			SMSOptIn: l.SMSOptIn,
			Locale:   defaultString(l.Locale, "en"),
			Source:   defaultString(l.Source, "seed"),
		}
		if err := models.InsertLead(ctx, database.DB, in); err != nil {
			return err
		}
	}

	for _, v := range fixtures.Volunteers {
		sourcePath := "/seed"
		if v.SourcePath != nil {
			sourcePath = *v.SourcePath
		}
		in := models.VolunteerInput{
			FirstName:    v.FirstName,
			LastName:     v.LastName,
			Email:        v.Email,
			Phone:        v.Phone,
			Zip:          v.Zip,
			Interest:     v.Interest,
			UpdatesOptIn: v.UpdatesOptIn == nil || *v.UpdatesOptIn,
			SMSOptIn:     v.SMSOptIn,
			SourcePath:   &sourcePath,
			Locale:       defaultString(v.Locale, "en"),
		}
		if _, err := models.InsertVolunteerSignup(ctx, database.DB, in); err != nil {
			return err
		}
	}

	fmt.Printf("Seeded %d leads and %d volunteers.\n", len(fixtures.Leads), len(fixtures.Volunteers))
	return nil
}

func loadFixtures(path string) (*seedFixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var fixtures seedFixtures
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &fixtures, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func init() {
	seedCmd.Flags().StringVarP(&seedDatabaseURL, "database-url", "d", "", "PostgreSQL connection URL")
	RootCmd.AddCommand(seedCmd)
}
