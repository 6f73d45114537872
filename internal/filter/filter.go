package filter

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// Listings narrows a set of listings by title, location and tag keywords.
// Matching is case-insensitive substring (tags match exactly, ignoring case).
// An empty keyword list passes everything.
type Listings struct {
	titles    []string
	locations []string
	tags      []string
}

func New(titles, locations, tags []string) *Listings {
	return &Listings{
		titles:    lowerAll(titles),
		locations: lowerAll(locations),
		tags:      lowerAll(tags),
	}
}

// Empty reports whether the filter passes every listing.
func (f *Listings) Empty() bool {
	return len(f.titles) == 0 && len(f.locations) == 0 && len(f.tags) == 0
}

// Match reports whether l satisfies every non-empty keyword list.
func (f *Listings) Match(l model.Listing) bool {
	if !containsAny(strings.ToLower(l.Title), f.titles) {
		return false
	}
	if !containsAny(strings.ToLower(l.Location), f.locations) {
		return false
	}
	if len(f.tags) > 0 {
		for _, want := range f.tags {
			for _, tag := range l.Tags {
				if strings.ToLower(tag) == want {
					return true
				}
			}
		}
		return false
	}
	return true
}

// Apply returns the listings that match, preserving order.
func (f *Listings) Apply(listings []model.Listing) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
