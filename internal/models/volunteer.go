package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// VolunteerInput is the payload accepted by the public volunteer endpoint.
type VolunteerInput struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	Zip          *string `json:"zip"`
	Interest     *string `json:"interest"`
	UpdatesOptIn bool    `json:"updatesOptIn"`
	SMSOptIn     bool    `json:"smsOptIn"`
	SourcePath   *string `json:"sourcePath"`
	Locale       string  `json:"locale"`
}

// InsertVolunteerSignup stores a volunteer signup and returns its id.
func InsertVolunteerSignup(ctx context.Context, db *sql.DB, in VolunteerInput) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO volunteer_signups
			(id, first_name, last_name, email, phone, zip, interest,
			 updates_opt_in, sms_opt_in, source_path, locale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, in.FirstName, in.LastName, in.Email, in.Phone, in.Zip, in.Interest,
		in.UpdatesOptIn, in.SMSOptIn, in.SourcePath, in.Locale)
	if err != nil {
		return "", fmt.Errorf("failed to insert volunteer signup: %w", err)
	}
	return id, nil
}
