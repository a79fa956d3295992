package handlers

import (
	"github.com/votegrid/canvass/internal/notify"
)

// Deps are the request-independent collaborators shared by the handlers.
type Deps struct {
	DonateURL            string
	LeadsNotifyEmail     string
	VolunteerNotifyEmail string
	Mailer               *notify.Mailer
}

var deps Deps

// Configure installs the handler dependencies. Called once at startup,
// and by tests to point notifications at a disabled mailer.
func Configure(d Deps) {
	deps = d
}
