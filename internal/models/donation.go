package models

import (
	"context"
	"database/sql"
	"fmt"
)

// DonationClick records a redirect through the donate endpoint. Amount is
// kept as free text because the redirect target does its own validation.
type DonationClick struct {
	Amount    *string
	Locale    string
	Path      *string
	Referrer  *string
	UserAgent *string
}

// InsertDonationClick logs one donate redirect.
func InsertDonationClick(ctx context.Context, db *sql.DB, click DonationClick) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO donation_clicks (amount, locale, path, referrer, user_agent)
		VALUES ($1, $2, $3, $4, $5)
	`, click.Amount, click.Locale, click.Path, click.Referrer, click.UserAgent)
	if err != nil {
		return fmt.Errorf("failed to insert donation click: %w", err)
	}
	return nil
}
