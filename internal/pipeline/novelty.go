package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// NoveltyFilter splits a batch into listings the store already holds and
// listings seen for the first time. New listings are written as they are
// found, and the store's unique key arbitrates concurrent searches: whoever
// loses the insert reclassifies the listing as known.
type NoveltyFilter struct {
	store  model.ListingStore
	logger *slog.Logger
}

func NewNoveltyFilter(store model.ListingStore, logger *slog.Logger) *NoveltyFilter {
	return &NoveltyFilter{store: store, logger: logger}
}

// Partition classifies every listing of batch. Store failures are logged and
// the listing counts as known, so it is neither notified nor retried here.
func (f *NoveltyFilter) Partition(ctx context.Context, batch []model.Listing) (known, fresh []model.Listing) {
	known = make([]model.Listing, 0, len(batch))
	fresh = make([]model.Listing, 0, len(batch))

	for _, l := range batch {
		exists, err := f.store.Exists(ctx, l.Key())
		if err != nil {
			f.logger.Error("novelty check failed, treating listing as known",
				"source", l.Source, "title", l.Title, "link", l.Link, "error", err)
			known = append(known, l)
			continue
		}
		if exists {
			known = append(known, l)
			continue
		}

		created, err := f.store.Insert(ctx, l)
		var dup *model.DuplicateKeyError
		switch {
		case errors.As(err, &dup):
			f.logger.Debug("lost insert race, listing already known", "title", l.Title, "link", l.Link)
			known = append(known, l)
		case err != nil && created:
			f.logger.Warn("listing stored with errors", "title", l.Title, "link", l.Link, "error", err)
			fresh = append(fresh, l)
		case err != nil:
			f.logger.Error("persisting listing failed, treating listing as known",
				"source", l.Source, "title", l.Title, "link", l.Link, "error", err)
			known = append(known, l)
		case !created:
			f.logger.Debug("lost insert race, listing already known", "title", l.Title, "link", l.Link)
			known = append(known, l)
		default:
			fresh = append(fresh, l)
		}
	}
	return known, fresh
}
