// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settlement

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/groupbuy/models"
)

// RosterSeparator joins participant entries in notification bodies
const RosterSeparator = ", "

// Summary is everything a settlement notification reports.
type Summary struct {
	PoolID       string
	ProductName  string
	MinQuantity  int
	TotalJoined  int
	Participants []models.Participant
}

type Notification struct {
	Subject string
	Body    string
}

// Roster renders participants as "<email> (<quantity>u)" in order
func Roster(participants []models.Participant) string {
	if len(participants) == 0 {
		return "(none)"
	}
	entries := make([]string, len(participants))
	for i, p := range participants {
		entries[i] = fmt.Sprintf("%s (%du)", p.Email, p.Quantity)
	}
	return strings.Join(entries, RosterSeparator)
}

// Compose renders the notification for a settled pool. Output depends only
// on its arguments.
func Compose(s Summary, outcome Outcome, trigger string) Notification {
	var subject, intro, closing string

	switch {
	case outcome == Success && trigger == models.TriggerInline:
		subject = fmt.Sprintf("SUCCESS (early): the pool for %q just filled", s.ProductName)
		intro = fmt.Sprintf("Great news!\n\nThe group purchase pool for %q (ID: %s) has just reached its minimum with the latest request.", s.ProductName, s.PoolID)
		closing = "The purchase is closed and successful."
	case outcome == Success:
		subject = fmt.Sprintf("SUCCESS: the pool for %q completed", s.ProductName)
		intro = fmt.Sprintf("Good news!\n\nThe group purchase pool for %q (ID: %s) has ended successfully.", s.ProductName, s.PoolID)
		closing = "The purchase will be processed. Thanks for participating."
	default:
		subject = fmt.Sprintf("FAILED: the pool for %q did not reach its minimum", s.ProductName)
		intro = fmt.Sprintf("Pool notification (ID: %s)\n\nThe group purchase pool for %q has expired without reaching the required minimum.", s.PoolID, s.ProductName)
		closing = "The purchase will not be executed."
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "- Minimum required: %s units\n", humanize.Comma(int64(s.MinQuantity)))
	fmt.Fprintf(&b, "- Total reached: %s units\n", humanize.Comma(int64(s.TotalJoined)))
	fmt.Fprintf(&b, "- Reached/required: %d/%d\n\n", s.TotalJoined, s.MinQuantity)
	b.WriteString(closing)
	b.WriteString("\n")
	b.WriteString("Participants: ")
	b.WriteString(Roster(s.Participants))

	return Notification{Subject: subject, Body: b.String()}
}
