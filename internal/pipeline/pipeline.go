// Package pipeline runs one search end to end: fetch from a source, normalize,
// dedupe, split into known and new listings, persist the new ones and notify
// the requesting user.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
)

// Stage is a step of a single search.
type Stage int

const (
	StageValidating Stage = iota
	StageFetching
	StageNormalizing
	StageDeduplicating
	StageFiltering
	StageNotifying
	StageResponding
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageFetching:
		return "fetching"
	case StageNormalizing:
		return "normalizing"
	case StageDeduplicating:
		return "deduplicating"
	case StageFiltering:
		return "filtering"
	case StageNotifying:
		return "notifying"
	case StageResponding:
		return "responding"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// AdapterLookup resolves a source identifier to its adapter.
type AdapterLookup interface {
	Lookup(source model.Source) (model.SourceAdapter, error)
}

// Request is one search.
type Request struct {
	Term   string       `json:"query"`
	Source model.Source `json:"source"`
	User   string       `json:"user,omitempty"`
}

// Response reports the deduplicated batch and which of its listings are new.
// On failure only Error is set; callers serving HTTP send ErrorResponse instead.
type Response struct {
	Jobs        []model.Listing `json:"jobs"`
	NewJobFound bool            `json:"newJobFound"`
	NewJobs     []model.Listing `json:"newJobs"`
	Error       string          `json:"error,omitempty"`
}

// ErrorResponse is the failure payload of a search.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Config bounds the time a search may spend on each external call.
type Config struct {
	FetchTimeout  time.Duration
	NotifyTimeout time.Duration
}

// Pipeline sequences adapters, the normalizer, the store and the notifier.
// It is safe for concurrent use; each Search owns its batch.
type Pipeline struct {
	adapters   AdapterLookup
	normalizer *normalize.Normalizer
	novelty    *NoveltyFilter
	notifier   model.Notifier
	cfg        Config
	logger     *slog.Logger

	inflight sync.WaitGroup
}

// New wires a pipeline. A nil notifier disables notifications.
func New(
	adapters AdapterLookup,
	normalizer *normalize.Normalizer,
	store model.ListingStore,
	notifier model.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 2 * time.Minute
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	return &Pipeline{
		adapters:   adapters,
		normalizer: normalizer,
		novelty:    NewNoveltyFilter(store, logger),
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Search runs req through every stage. The returned error is one of
// *model.ValidationError, *model.UnsupportedSourceError or *model.FetchError,
// and the Response then carries only its message. Notification runs in the
// background after the response is assembled; use Wait to drain it.
func (p *Pipeline) Search(ctx context.Context, req Request) (Response, error) {
	log := p.logger.With("source", req.Source, "term", req.Term, "user", req.User)
	stage := func(s Stage) { log.Debug("search stage", "stage", s) }
	fail := func(err error) (Response, error) {
		stage(StageFailed)
		log.Warn("search failed", "error", err)
		return Response{Error: err.Error()}, err
	}

	stage(StageValidating)
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return fail(&model.ValidationError{Field: "query", Reason: "search term is required"})
	}
	if req.Source == "" {
		return fail(&model.ValidationError{Field: "source", Reason: "source is required"})
	}
	a, err := p.adapters.Lookup(req.Source)
	if err != nil {
		var unsupported *model.UnsupportedSourceError
		if !errors.As(err, &unsupported) {
			err = &model.UnsupportedSourceError{Source: req.Source}
		}
		return fail(err)
	}

	stage(StageFetching)
	start := time.Now()
	raws, err := p.fetch(ctx, a, term)
	if err != nil {
		return fail(err)
	}
	log.Debug("fetched", "raw", len(raws), "elapsed", time.Since(start))

	stage(StageNormalizing)
	batch := p.normalizer.NormalizeAll(raws, req.Source, term)

	stage(StageDeduplicating)
	batch = Dedupe(batch)

	stage(StageFiltering)
	// A fetched batch is classified and stored in full, even if the caller
	// goes away meanwhile.
	known, fresh := p.novelty.Partition(context.WithoutCancel(ctx), batch)

	stage(StageNotifying)
	if len(fresh) > 0 && req.User != "" && p.notifier != nil {
		p.notifyAsync(ctx, req.User, slices.Clone(fresh))
	}

	stage(StageResponding)
	log.Info("search complete", "fetched", len(raws), "unique", len(batch), "known", len(known), "new", len(fresh))
	return Response{
		Jobs:        batch,
		NewJobFound: len(fresh) > 0,
		NewJobs:     fresh,
	}, nil
}

// fetch calls the adapter under the fetch timeout. Whatever goes wrong comes
// back as a *model.FetchError.
func (p *Pipeline) fetch(ctx context.Context, a model.SourceAdapter, term string) ([]model.RawListing, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	raws, err := a.Fetch(fetchCtx, term)
	if err == nil && fetchCtx.Err() != nil {
		err = fetchCtx.Err()
	}
	if err != nil {
		var fetchErr *model.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &model.FetchError{Source: a.Source(), Term: term, Err: err}
	}
	return raws, nil
}

// notifyAsync delivers the summary without holding up the response. The
// request context may end as soon as the response is written, so the
// notification gets its own deadline.
func (p *Pipeline) notifyAsync(ctx context.Context, user string, listings []model.Listing) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.NotifyTimeout)
		defer cancel()

		if err := p.notifier.Notify(nctx, user, listings); err != nil {
			p.logger.Error("notification failed", "user", user, "new_jobs", len(listings), "error", err)
		}
	}()
}

// Wait blocks until every background notification has finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// FailureKind groups search errors by who is at fault.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureInvalid is a bad request: validation or an unknown source.
	FailureInvalid
	// FailureUpstream is a source site that could not be fetched.
	FailureUpstream
	FailureInternal
)

// Failure classifies an error returned by Search.
func Failure(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var (
		validation  *model.ValidationError
		unsupported *model.UnsupportedSourceError
		fetchErr    *model.FetchError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &unsupported):
		return FailureInvalid
	case errors.As(err, &fetchErr):
		return FailureUpstream
	default:
		return FailureInternal
	}
}
