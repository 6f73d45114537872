package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure LogSender implements model.Sender.
var _ model.Sender = (*LogSender)(nil)

// LogSender writes messages to the given logger instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that logs each message via slog.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the summary line, then one line per listing.
// Returns nil (stdout logging does not fail).
func (s *LogSender) Send(_ context.Context, msg model.Message) error {
	s.logger.Info("notification", "to", msg.Recipient, "subject", msg.Subject)
	for _, l := range msg.Listings {
		s.logger.Info("new job",
			"source", l.Source,
			"title", l.Title,
			"company", l.Company,
			"location", l.Location,
			"url", l.Link,
			"tags", l.TagString(),
		)
	}
	return nil
}
