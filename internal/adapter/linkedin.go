package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/amishk599/jobscout/internal/model"
)

const linkedInBaseURL = "https://www.linkedin.com"

// LinkedInAdapter scrapes the public guest job search. The result list only
// carries titles and links, so each card costs one more request for its
// description.
type LinkedInAdapter struct {
	opts       Options
	logger     *slog.Logger
	onTeardown func()
}

// NewLinkedInAdapter creates an adapter for LinkedIn guest search.
func NewLinkedInAdapter(opts Options, logger *slog.Logger) *LinkedInAdapter {
	return &LinkedInAdapter{
		opts:   opts.withDefaults(linkedInBaseURL),
		logger: logger.With("source", model.SourceLinkedIn),
	}
}

func (a *LinkedInAdapter) Source() model.Source { return model.SourceLinkedIn }

type linkedInCard struct {
	title    string
	href     string
	company  string
	location string
}

// Fetch runs the search for term and returns every card whose detail page
// yielded a description.
func (a *LinkedInAdapter) Fetch(ctx context.Context, term string) ([]model.RawListing, error) {
	sess := newSession(model.SourceLinkedIn, a.opts, a.logger, a.onTeardown)
	defer sess.close()

	searchURL := fmt.Sprintf("%s/jobs-guest/jobs/api/seeMoreJobPostings/search?keywords=%s&start=0",
		strings.TrimRight(a.opts.BaseURL, "/"), url.QueryEscape(term))

	resp, err := sess.get(ctx, searchURL)
	if err != nil {
		return nil, &model.FetchError{Source: model.SourceLinkedIn, Term: term, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &model.FetchError{Source: model.SourceLinkedIn, Term: term, Err: fmt.Errorf("parsing results: %w", err)}
	}

	cards := doc.Find("li")
	if cards.Length() == 0 {
		// No results come back as an empty body. Anything else means the page changed.
		if strings.TrimSpace(doc.Text()) != "" {
			return nil, &model.FetchError{Source: model.SourceLinkedIn, Term: term, Err: fmt.Errorf("result list not found")}
		}
		return []model.RawListing{}, nil
	}

	var parsed []linkedInCard
	cards.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a.base-card__full-link").Attr("href")
		if href == "" {
			href, _ = s.Find("a").First().Attr("href")
		}
		parsed = append(parsed, linkedInCard{
			title:    strings.TrimSpace(s.Find(".base-search-card__title").Text()),
			href:     href,
			company:  strings.TrimSpace(s.Find(".base-search-card__subtitle").Text()),
			location: strings.TrimSpace(s.Find(".job-search-card__location").Text()),
		})
	})

	listings := make([]model.RawListing, 0, len(parsed))
	for i, card := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, &model.FetchError{Source: model.SourceLinkedIn, Term: term, Err: err}
		}
		raw, err := a.detail(ctx, sess, card)
		if err != nil {
			skipItem(a.logger, model.SourceLinkedIn, i, err)
			continue
		}
		listings = append(listings, raw)
	}

	a.logger.Debug("linkedin fetch complete", "term", term, "cards", len(parsed), "listings", len(listings))
	return listings, nil
}

func (a *LinkedInAdapter) detail(ctx context.Context, sess *session, card linkedInCard) (model.RawListing, error) {
	if card.title == "" {
		return model.RawListing{}, fmt.Errorf("missing title")
	}
	link, err := resolveLink(a.opts.BaseURL, card.href)
	if err != nil {
		return model.RawListing{}, err
	}
	// Tracking parameters differ per request; the listing identity must not.
	if u, err := url.Parse(link); err == nil {
		u.RawQuery, u.Fragment = "", ""
		link = u.String()
	}

	resp, err := sess.get(ctx, link)
	if err != nil {
		return model.RawListing{}, fmt.Errorf("fetching detail: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return model.RawListing{}, fmt.Errorf("parsing detail: %w", err)
	}

	description := descriptionFromMarkup(doc)
	if description == "" {
		description = a.readable(doc, link)
	}
	if err := missingField(card.title, link, description); err != nil {
		return model.RawListing{}, err
	}
	return model.RawListing{
		Title:       card.title,
		Link:        link,
		Description: description,
		Company:     card.company,
		Location:    card.location,
	}, nil
}

// descriptionFromMarkup reads the description block LinkedIn renders on job pages.
func descriptionFromMarkup(doc *goquery.Document) string {
	markup := doc.Find(".show-more-less-html__markup, .description__text").First()
	if markup.Length() == 0 {
		return ""
	}
	html, err := markup.Html()
	if err != nil {
		return compactLines(markup.Text())
	}
	return extractLines(html)
}

// readable falls back to readability extraction over the whole page.
func (a *LinkedInAdapter) readable(doc *goquery.Document, link string) string {
	page, err := doc.Html()
	if err != nil {
		return ""
	}
	pageURL, _ := url.Parse(link)
	article, err := readability.FromReader(strings.NewReader(page), pageURL)
	if err != nil {
		a.logger.Debug("readability extraction failed", "link", link, "error", err)
		return ""
	}
	return compactLines(article.TextContent)
}
