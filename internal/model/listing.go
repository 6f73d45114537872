package model

import (
	"context"
	"strings"
	"time"
)

// Source identifies the external site a listing was fetched from.
type Source string

const (
	SourceLinkedIn       Source = "linkedin"
	SourceIndeed         Source = "indeed"
	SourceWeWorkRemotely Source = "weworkremotely"
	SourceRemoteOK       Source = "remoteok"
)

// KnownSources lists every source identifier, in display order. Config
// validation and the adapter factory both work from this list.
var KnownSources = []Source{
	SourceLinkedIn,
	SourceIndeed,
	SourceWeWorkRemotely,
	SourceRemoteOK,
}

// RawListing is what a source adapter extracts from a site before normalization.
type RawListing struct {
	Title       string
	Link        string // absolute after adapter link resolution
	Description string // free text, never empty for emitted items
	Company     string // optional
	Location    string // optional
}

// Listing is one normalized job posting observed from one source under one search term.
type Listing struct {
	Source           Source    `json:"source"`
	SearchTerm       string    `json:"searchTerm"`
	Title            string    `json:"title"`
	Link             string    `json:"link"`
	Company          string    `json:"company,omitempty"`
	Location         string    `json:"location,omitempty"`
	ShortDescription string    `json:"shortDescription"`
	FullDescription  string    `json:"fullDescription"`
	Tags             []string  `json:"tags"`
	FirstSeenAt      time.Time `json:"firstSeenAt"`
}

// Key is the identity of a listing: the same posting seen under the same search on the same site.
type Key struct {
	Source     Source
	SearchTerm string
	Title      string
	Link       string
}

// Key returns the identity key of l.
func (l Listing) Key() Key {
	return Key{Source: l.Source, SearchTerm: l.SearchTerm, Title: l.Title, Link: l.Link}
}

// TagString returns the tags comma-joined in vocabulary order.
func (l Listing) TagString() string {
	return strings.Join(l.Tags, ", ")
}

// ListQuery narrows an administrative listing query. Zero values mean "any".
type ListQuery struct {
	Source     Source
	SearchTerm string
	Limit      int
	Offset     int
}

// SourceAdapter fetches raw listings for a search term from one external site.
type SourceAdapter interface {
	Source() Source
	Fetch(ctx context.Context, term string) ([]RawListing, error)
}

// ListingStore is the durable, append-only listing collection keyed by Key.
type ListingStore interface {
	Exists(ctx context.Context, key Key) (bool, error)
	// Insert persists l unless its key is already present. created is false for an
	// existing key; that is not an error.
	Insert(ctx context.Context, l Listing) (created bool, err error)
	All(ctx context.Context, q ListQuery) ([]Listing, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Notifier sends one summary notification for a batch of new listings.
type Notifier interface {
	Notify(ctx context.Context, user string, listings []Listing) error
}

// ContactResolver looks up the contact address of a user.
// Returns ErrContactNotFound when the user is unknown or has no address.
type ContactResolver interface {
	ResolveContact(ctx context.Context, user string) (string, error)
}

// Message is one composed notification. Body is the plain-text rendering;
// Listings lets richer senders lay the same content out themselves.
type Message struct {
	Recipient string
	Subject   string
	Body      string
	Listings  []Listing
}

// Sender delivers one message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
