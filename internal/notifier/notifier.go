// Package notifier turns a batch of new listings into one summary message
// and hands it to a Sender.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure SummaryNotifier implements model.Notifier.
var _ model.Notifier = (*SummaryNotifier)(nil)

// SummaryNotifier resolves a user's contact and sends them exactly one
// message per batch.
type SummaryNotifier struct {
	contacts model.ContactResolver
	sender   model.Sender
	logger   *slog.Logger
}

// NewSummaryNotifier returns a notifier that delivers through sender.
func NewSummaryNotifier(contacts model.ContactResolver, sender model.Sender, logger *slog.Logger) *SummaryNotifier {
	return &SummaryNotifier{
		contacts: contacts,
		sender:   sender,
		logger:   logger,
	}
}

// Notify sends one summary of listings to user. An unknown user or a user
// without an address is logged and skipped; only a failed send is an error.
func (n *SummaryNotifier) Notify(ctx context.Context, user string, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	recipient, err := n.contacts.ResolveContact(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrContactNotFound) {
			n.logger.Warn("no contact for user, skipping notification", "user", user, "new_jobs", len(listings))
		} else {
			n.logger.Warn("contact lookup failed, skipping notification", "user", user, "error", err)
		}
		return nil
	}
	if recipient == "" {
		n.logger.Warn("empty contact for user, skipping notification", "user", user)
		return nil
	}

	msg := Compose(recipient, listings)
	if err := n.sender.Send(ctx, msg); err != nil {
		return &model.NotifyError{User: user, Err: err}
	}
	n.logger.Info("notification sent", "user", user, "new_jobs", len(listings))
	return nil
}

// Compose renders listings as a single message addressed to recipient.
// All listings of a batch share one search term.
func Compose(recipient string, listings []model.Listing) model.Message {
	term := ""
	if len(listings) > 0 {
		term = listings[0].SearchTerm
	}
	subject := fmt.Sprintf("%d new job(s) for %q", len(listings), term)

	var b strings.Builder
	b.WriteString(subject)
	b.WriteString(":\n")
	for i, l := range listings {
		fmt.Fprintf(&b, "\n%d. %s", i+1, l.Title)
		if l.Company != "" {
			fmt.Fprintf(&b, " at %s", l.Company)
		}
		if l.Location != "" {
			fmt.Fprintf(&b, " (%s)", l.Location)
		}
		fmt.Fprintf(&b, "\n   %s\n", l.Link)
		if len(l.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", l.TagString())
		}
	}

	return model.Message{
		Recipient: recipient,
		Subject:   subject,
		Body:      b.String(),
		Listings:  listings,
	}
}

// SendTestMessage sends a sample summary to recipient to verify the sender works.
func SendTestMessage(ctx context.Context, s model.Sender, recipient string) error {
	now := time.Now()
	msg := Compose(recipient, []model.Listing{{
		Source:           "test",
		SearchTerm:       "integration test",
		Title:            "Test Notification: Integration Verified",
		Link:             "https://example.com/jobs/test",
		Company:          "jobscout",
		Location:         "Everywhere",
		ShortDescription: "If you can read this, notifications work.",
		Tags:             []string{"golang"},
		FirstSeenAt:      now,
	}})
	return s.Send(ctx, msg)
}
