package models

import (
	"strings"
	"time"
	"unicode"
)

// MaxLeadScore caps the engagement score.
const MaxLeadScore = 10

// recentLeadWindow is how fresh a lead must be to earn the recency point.
const recentLeadWindow = 7 * 24 * time.Hour

// ScoreLead rates a lead's engagement from 0 to MaxLeadScore.
//
//	+3  opted in to SMS
//	+2  usable phone number (at least ten digits)
//	+2  arrived via a WinRed source or carries a winred tag
//	+1  attributed to a campaign
//	+1  created within the last seven days
func ScoreLead(lead Lead, now time.Time) int {
	score := 0

	if lead.SMSOptIn {
		score += 3
	}
	if lead.Phone != nil && digitCount(*lead.Phone) >= 10 {
		score += 2
	}
	if isWinRedLead(lead) {
		score += 2
	}
	if lead.UTMCampaign != nil && strings.TrimSpace(*lead.UTMCampaign) != "" {
		score++
	}
	if now.Sub(lead.CreatedAt) < recentLeadWindow {
		score++
	}

	if score > MaxLeadScore {
		score = MaxLeadScore
	}
	return score
}

// isWinRedLead matches the source by substring but tags only exactly,
// so a "winred-2024" tag does not count while a "winred-landing" source does.
func isWinRedLead(lead Lead) bool {
	if strings.Contains(strings.ToLower(lead.Source), "winred") {
		return true
	}
	for _, tag := range lead.Tags {
		if strings.ToLower(strings.TrimSpace(tag)) == "winred" {
			return true
		}
	}
	return false
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
