// Package account looks up where to send a user's notifications. Accounts
// themselves are managed elsewhere; this side only reads them.
package account

import (
	"context"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ContactResolver = (*StaticResolver)(nil)

// StaticResolver resolves contacts from a fixed user → address map, typically
// the accounts.users section of the config file.
type StaticResolver struct {
	contacts map[string]string
}

// NewStaticResolver copies contacts. User names are matched case-insensitively.
func NewStaticResolver(contacts map[string]string) *StaticResolver {
	m := make(map[string]string, len(contacts))
	for user, addr := range contacts {
		m[strings.ToLower(strings.TrimSpace(user))] = strings.TrimSpace(addr)
	}
	return &StaticResolver{contacts: m}
}

func (r *StaticResolver) ResolveContact(_ context.Context, user string) (string, error) {
	addr, ok := r.contacts[strings.ToLower(strings.TrimSpace(user))]
	if !ok || addr == "" {
		return "", model.ErrContactNotFound
	}
	return addr, nil
}
