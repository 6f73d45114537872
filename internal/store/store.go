// Package store holds the durable listing collection implementations.
// Every implementation enforces identity-key uniqueness itself, so a losing
// concurrent Insert reports created=false instead of writing a second row.
package store

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

const tagSeparator = ", "

func joinTags(tags []string) string {
	return strings.Join(tags, tagSeparator)
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, tagSeparator)
}

// matches reports whether l satisfies the source/term filters of q.
func matches(l model.Listing, q model.ListQuery) bool {
	if q.Source != "" && l.Source != q.Source {
		return false
	}
	if q.SearchTerm != "" && l.SearchTerm != q.SearchTerm {
		return false
	}
	return true
}

// page applies q's offset and limit to an already filtered slice.
// A non-positive limit returns everything after the offset.
func page(all []model.Listing, q model.ListQuery) []model.Listing {
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []model.Listing{}
	}
	all = all[offset:]
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}
	return all
}
