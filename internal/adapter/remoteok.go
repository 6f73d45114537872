package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

const remoteOKBaseURL = "https://remoteok.com"

// remoteOKJob represents a single job in the RemoteOK API response. The first
// array element is a legal notice that only sets Legal.
type remoteOKJob struct {
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Legal       string   `json:"legal"`
}

// RemoteOKAdapter fetches jobs from the RemoteOK public JSON API.
type RemoteOKAdapter struct {
	opts       Options
	logger     *slog.Logger
	onTeardown func()
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK API.
func NewRemoteOKAdapter(opts Options, logger *slog.Logger) *RemoteOKAdapter {
	return &RemoteOKAdapter{
		opts:   opts.withDefaults(remoteOKBaseURL),
		logger: logger.With("source", model.SourceRemoteOK),
	}
}

func (a *RemoteOKAdapter) Source() model.Source { return model.SourceRemoteOK }

// Fetch retrieves jobs tagged with term. The API's tag parameter is advisory,
// so results are filtered again on the tags each job carries.
func (a *RemoteOKAdapter) Fetch(ctx context.Context, term string) ([]model.RawListing, error) {
	sess := newSession(model.SourceRemoteOK, a.opts, a.logger, a.onTeardown)
	defer sess.close()

	tag := remoteOKTag(term)
	apiURL := fmt.Sprintf("%s/api?tag=%s", strings.TrimRight(a.opts.BaseURL, "/"), url.QueryEscape(tag))

	resp, err := sess.get(ctx, apiURL)
	if err != nil {
		return nil, &model.FetchError{Source: model.SourceRemoteOK, Term: term, Err: err}
	}
	defer resp.Body.Close()

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &model.FetchError{Source: model.SourceRemoteOK, Term: term, Err: fmt.Errorf("decoding response: %w", err)}
	}

	listings := make([]model.RawListing, 0, len(items))
	for i, item := range items {
		var job remoteOKJob
		if err := json.Unmarshal(item, &job); err != nil {
			skipItem(a.logger, model.SourceRemoteOK, i, err)
			continue
		}
		if job.Legal != "" {
			continue
		}
		if !hasTag(job.Tags, tag) {
			continue
		}

		link, err := resolveLink(a.opts.BaseURL, job.URL)
		if err != nil {
			skipItem(a.logger, model.SourceRemoteOK, i, err)
			continue
		}
		title := extractText(job.Position)
		description := extractLines(job.Description)
		if err := missingField(title, link, description); err != nil {
			skipItem(a.logger, model.SourceRemoteOK, i, err)
			continue
		}

		location := strings.TrimSpace(job.Location)
		if location == "" {
			location = "Remote"
		}
		listings = append(listings, model.RawListing{
			Title:       title,
			Link:        link,
			Description: description,
			Company:     strings.TrimSpace(job.Company),
			Location:    location,
		})
	}

	a.logger.Debug("remoteok fetch complete", "term", term, "items", len(items), "listings", len(listings))
	return listings, nil
}

// remoteOKTag maps a search term onto RemoteOK's tag format ("machine learning"
// becomes "machine-learning").
func remoteOKTag(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), "-")
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}
