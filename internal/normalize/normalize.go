// Package normalize turns raw adapter output into canonical listings.
package normalize

import (
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// shortDescriptionLines is how many description lines the preview keeps.
const shortDescriptionLines = 3

// Normalizer converts RawListings into Listings.
type Normalizer struct {
	tags *TagExtractor
	now  func() time.Time
}

// NewNormalizer returns a normalizer that tags with the given extractor.
// A nil clock uses time.Now.
func NewNormalizer(tags *TagExtractor, now func() time.Time) *Normalizer {
	if tags == nil {
		tags = NewTagExtractor(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{tags: tags, now: now}
}

// Normalize builds the canonical Listing for raw observed on source under term.
// raw.Description is assumed non-empty; adapters drop items without one.
func (n *Normalizer) Normalize(raw model.RawListing, source model.Source, term string) model.Listing {
	return model.Listing{
		Source:           source,
		SearchTerm:       term,
		Title:            strings.TrimSpace(raw.Title),
		Link:             strings.TrimSpace(raw.Link),
		Company:          strings.TrimSpace(raw.Company),
		Location:         strings.TrimSpace(raw.Location),
		ShortDescription: ShortDescription(raw.Description),
		FullDescription:  raw.Description,
		Tags:             n.tags.Extract(raw.Description),
		FirstSeenAt:      n.now().UTC(),
	}
}

// NormalizeAll normalizes a whole batch, preserving order.
func (n *Normalizer) NormalizeAll(raws []model.RawListing, source model.Source, term string) []model.Listing {
	out := make([]model.Listing, 0, len(raws))
	for _, r := range raws {
		out = append(out, n.Normalize(r, source, term))
	}
	return out
}

// ShortDescription returns the first three lines of description.
func ShortDescription(description string) string {
	lines := strings.Split(description, "\n")
	if len(lines) > shortDescriptionLines {
		lines = lines[:shortDescriptionLines]
	}
	return strings.Join(lines, "\n")
}
