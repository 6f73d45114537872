package pipeline

import "github.com/amishk599/jobscout/internal/model"

type titleLink struct {
	title string
	link  string
}

// Dedupe drops listings whose (title, link) pair already appeared earlier in
// the batch. Order is preserved and the first occurrence wins, so applying it
// twice changes nothing.
func Dedupe(listings []model.Listing) []model.Listing {
	seen := make(map[titleLink]struct{}, len(listings))
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		k := titleLink{l.Title, l.Link}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}
