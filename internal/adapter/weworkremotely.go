package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/jobscout/internal/model"
)

const weWorkRemotelyBaseURL = "https://weworkremotely.com"

// WeWorkRemotelyAdapter reads the site's search RSS feed.
type WeWorkRemotelyAdapter struct {
	opts       Options
	logger     *slog.Logger
	onTeardown func()
}

// NewWeWorkRemotelyAdapter creates an adapter for the WeWorkRemotely search feed.
func NewWeWorkRemotelyAdapter(opts Options, logger *slog.Logger) *WeWorkRemotelyAdapter {
	return &WeWorkRemotelyAdapter{
		opts:   opts.withDefaults(weWorkRemotelyBaseURL),
		logger: logger.With("source", model.SourceWeWorkRemotely),
	}
}

func (a *WeWorkRemotelyAdapter) Source() model.Source { return model.SourceWeWorkRemotely }

// Fetch retrieves the feed for term. Item titles come as "Company: Title".
func (a *WeWorkRemotelyAdapter) Fetch(ctx context.Context, term string) ([]model.RawListing, error) {
	sess := newSession(model.SourceWeWorkRemotely, a.opts, a.logger, a.onTeardown)
	defer sess.close()

	feedURL := fmt.Sprintf("%s/remote-jobs/search.rss?term=%s",
		strings.TrimRight(a.opts.BaseURL, "/"), url.QueryEscape(term))

	resp, err := sess.get(ctx, feedURL)
	if err != nil {
		return nil, &model.FetchError{Source: model.SourceWeWorkRemotely, Term: term, Err: err}
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &model.FetchError{Source: model.SourceWeWorkRemotely, Term: term, Err: fmt.Errorf("parsing feed: %w", err)}
	}

	listings := make([]model.RawListing, 0, len(feed.Items))
	for i, item := range feed.Items {
		raw, err := a.item(item)
		if err != nil {
			skipItem(a.logger, model.SourceWeWorkRemotely, i, err)
			continue
		}
		listings = append(listings, raw)
	}

	a.logger.Debug("weworkremotely fetch complete", "term", term, "items", len(feed.Items), "listings", len(listings))
	return listings, nil
}

func (a *WeWorkRemotelyAdapter) item(item *gofeed.Item) (model.RawListing, error) {
	if item == nil {
		return model.RawListing{}, fmt.Errorf("empty feed item")
	}
	title := extractText(item.Title)
	var company string
	if before, after, ok := strings.Cut(title, ": "); ok {
		company, title = strings.TrimSpace(before), strings.TrimSpace(after)
	}

	var link string
	if item.Link != "" {
		var err error
		if link, err = resolveLink(a.opts.BaseURL, item.Link); err != nil {
			return model.RawListing{}, err
		}
	}

	body := item.Description
	if body == "" {
		body = item.Content
	}
	description := extractLines(body)

	if err := missingField(title, link, description); err != nil {
		return model.RawListing{}, err
	}

	location := "Remote"
	if region := strings.TrimSpace(item.Custom["region"]); region != "" {
		location = region
	}
	return model.RawListing{
		Title:       title,
		Link:        link,
		Description: description,
		Company:     company,
		Location:    location,
	}, nil
}
