package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/amishk599/jobscout/internal/model"
)

const indeedBaseURL = "https://www.indeed.com"

// indeedNoResults matches the block Indeed renders in place of the card list
// when a search has no hits.
const indeedNoResults = ".jobsearch-NoResult-messageContainer, [data-testid='jobsearch-NoResult']"

// IndeedAdapter scrapes Indeed's search result cards with a colly collector.
// Card snippets stand in for the description, so one request covers a search.
type IndeedAdapter struct {
	opts       Options
	logger     *slog.Logger
	onTeardown func()
}

// NewIndeedAdapter creates an adapter for Indeed search.
func NewIndeedAdapter(opts Options, logger *slog.Logger) *IndeedAdapter {
	return &IndeedAdapter{
		opts:   opts.withDefaults(indeedBaseURL),
		logger: logger.With("source", model.SourceIndeed),
	}
}

func (a *IndeedAdapter) Source() model.Source { return model.SourceIndeed }

// Fetch visits the search page for term. A fresh collector per call keeps
// colly's visited-URL bookkeeping from leaking between searches.
func (a *IndeedAdapter) Fetch(ctx context.Context, term string) ([]model.RawListing, error) {
	sess := newSession(model.SourceIndeed, a.opts, a.logger, a.onTeardown)
	defer sess.close()

	c := colly.NewCollector(
		colly.UserAgent(a.opts.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(sess.transport)
	c.SetRequestTimeout(a.opts.Timeout)

	var (
		listings  []model.RawListing
		cards     int
		noResults bool
		fetchErr  error
	)

	c.OnHTML("div.job_seen_beacon", func(e *colly.HTMLElement) {
		index := cards
		cards++
		raw, err := a.card(e)
		if err != nil {
			skipItem(a.logger, model.SourceIndeed, index, err)
			return
		}
		listings = append(listings, raw)
	})

	c.OnHTML(indeedNoResults, func(_ *colly.HTMLElement) {
		noResults = true
	})
	c.OnHTML("body", func(e *colly.HTMLElement) {
		if strings.Contains(strings.ToLower(e.Text), "did not match any jobs") {
			noResults = true
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r == nil || r.StatusCode == 0 {
			fetchErr = err
			return
		}
		retryAfter := ""
		if r.Headers != nil {
			retryAfter = r.Headers.Get("Retry-After")
		}
		fetchErr = &model.HTTPError{
			StatusCode: r.StatusCode,
			RetryAfter: parseRetryAfter(retryAfter),
			Err:        fmt.Errorf("GET %s: %w", r.Request.URL, err),
		}
	})

	searchURL := fmt.Sprintf("%s/jobs?q=%s", strings.TrimRight(a.opts.BaseURL, "/"), url.QueryEscape(term))
	if err := c.Visit(searchURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, &model.FetchError{Source: model.SourceIndeed, Term: term, Err: fetchErr}
	}
	if cards == 0 {
		// Verification walls and layout changes come back as 200 without cards.
		if !noResults {
			return nil, &model.FetchError{Source: model.SourceIndeed, Term: term, Err: fmt.Errorf("result list not found")}
		}
		return []model.RawListing{}, nil
	}
	if listings == nil {
		listings = []model.RawListing{}
	}

	a.logger.Debug("indeed fetch complete", "term", term, "cards", cards, "listings", len(listings))
	return listings, nil
}

// card extracts one result card. Selector misses surface as errors and a
// panic in extraction only costs that card.
func (a *IndeedAdapter) card(e *colly.HTMLElement) (raw model.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting card: %v", r)
		}
	}()

	title := strings.TrimSpace(e.ChildAttr("h2.jobTitle span[title]", "title"))
	if title == "" {
		title = firstText(e, "h2.jobTitle")
	}
	href := e.ChildAttr("h2.jobTitle a", "href")
	if href == "" {
		href = e.ChildAttr("a.jcs-JobTitle", "href")
	}
	var link string
	if href != "" {
		link, err = resolveLink(a.opts.BaseURL, href)
		if err != nil {
			return model.RawListing{}, err
		}
	}

	var lines []string
	for _, li := range e.ChildTexts("div.job-snippet li, [data-testid='jobsnippet_footer'] li") {
		if li = strings.TrimSpace(li); li != "" {
			lines = append(lines, li)
		}
	}
	if len(lines) == 0 {
		if snippet := compactLines(e.ChildText("div.job-snippet")); snippet != "" {
			lines = append(lines, snippet)
		}
	}
	description := strings.Join(lines, "\n")

	if err := missingField(title, link, description); err != nil {
		return model.RawListing{}, err
	}
	return model.RawListing{
		Title:       title,
		Link:        link,
		Description: description,
		Company:     firstText(e, "[data-testid='company-name'], span.companyName"),
		Location:    firstText(e, "[data-testid='text-location'], div.companyLocation"),
	}, nil
}

// firstText returns the trimmed text of the first element matching selector.
func firstText(e *colly.HTMLElement, selector string) string {
	return strings.TrimSpace(e.DOM.Find(selector).First().Text())
}
