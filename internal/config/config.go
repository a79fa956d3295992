package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runtime configuration for the canvass backend.
//
// Values are resolved from three sources, highest priority first:
// environment variables, an optional canvass.toml (current directory,
// then the XDG config dir), then built-in defaults. Explicit CLI flags
// override all three.
type Config struct {
	DatabaseURL string
	Port        string

	// AdminToken is the static bearer token required by /api/admin routes.
	// Admin endpoints are disabled when it is empty.
	AdminToken string

	// DonateURL is the WinRed destination for the donate redirect.
	DonateURL string

	EmailFrom            string
	LeadsNotifyEmail     string
	VolunteerNotifyEmail string
	DigestTo             string
	ResendAPIKey         string

	MailchimpAPIKey       string
	MailchimpServerPrefix string
	MailchimpAudienceID   string

	TrustedOrigins []string
}

const defaultDonateURL = "https://secure.winred.com/donate"

// envKeys maps viper config keys to their environment variable names.
var envKeys = map[string]string{
	"database_url":            "DATABASE_URL",
	"port":                    "PORT",
	"admin_token":             "ADMIN_TOKEN",
	"donate_url":              "DONATE_URL",
	"email_from":              "EMAIL_FROM",
	"leads_notify_email":      "LEADS_NOTIFY_EMAIL",
	"volunteer_notify_email":  "VOLUNTEER_NOTIFY_EMAIL",
	"digest_to":               "DIGEST_TO",
	"resend_api_key":          "RESEND_API_KEY",
	"mailchimp_api_key":       "MAILCHIMP_API_KEY",
	"mailchimp_server_prefix": "MAILCHIMP_SERVER_PREFIX",
	"mailchimp_audience_id":   "MAILCHIMP_AUDIENCE_ID",
	"trusted_origins":         "TRUSTED_ORIGINS",
}

// Load resolves configuration from canvass.toml, the environment and defaults.
func Load() (*Config, error) {
	return LoadWithOverrides("", "")
}

// LoadWithOverrides resolves configuration, letting CLI flags win over every
// other source. Empty override values are ignored.
func LoadWithOverrides(databaseURL, port string) (*Config, error) {
	v := newBaseViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:           v.GetString("database_url"),
		Port:                  v.GetString("port"),
		AdminToken:            v.GetString("admin_token"),
		DonateURL:             v.GetString("donate_url"),
		EmailFrom:             v.GetString("email_from"),
		LeadsNotifyEmail:      v.GetString("leads_notify_email"),
		VolunteerNotifyEmail:  v.GetString("volunteer_notify_email"),
		DigestTo:              v.GetString("digest_to"),
		ResendAPIKey:          v.GetString("resend_api_key"),
		MailchimpAPIKey:       v.GetString("mailchimp_api_key"),
		MailchimpServerPrefix: v.GetString("mailchimp_server_prefix"),
		MailchimpAudienceID:   v.GetString("mailchimp_audience_id"),
		TrustedOrigins:        parseTrustedOrigins(v.GetString("trusted_origins")),
	}

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if port != "" {
		cfg.Port = port
	}

	return cfg, nil
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("canvass")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if dir := configDir(); dir != "" {
		v.AddConfigPath(dir)
	}

	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	v.SetDefault("port", "4000")
	v.SetDefault("donate_url", defaultDonateURL)

	return v
}

// configDir returns the XDG config directory for canvass.
func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome == "" {
		return ""
	}
	return filepath.Join(configHome, "canvass")
}

// parseTrustedOrigins splits a comma-separated origin list, normalizing each
// entry to a lowercase origin without trailing slash.
func parseTrustedOrigins(raw string) []string {
	origins := []string{}
	for _, part := range strings.Split(raw, ",") {
		origin := strings.ToLower(strings.TrimSpace(part))
		origin = strings.TrimSuffix(origin, "/")
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
