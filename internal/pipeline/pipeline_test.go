package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
	"github.com/amishk599/jobscout/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdapter struct {
	source model.Source
	raws   []model.RawListing
	err    error
	block  bool
	calls  int
}

func (f *fakeAdapter) Source() model.Source { return f.source }

func (f *fakeAdapter) Fetch(ctx context.Context, _ string) ([]model.RawListing, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.RawListing(nil), f.raws...), nil
}

type fakeLookup map[model.Source]model.SourceAdapter

func (l fakeLookup) Lookup(source model.Source) (model.SourceAdapter, error) {
	a, ok := l[source]
	if !ok {
		return nil, &model.UnsupportedSourceError{Source: source}
	}
	return a, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]model.Listing
	users []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, user string, listings []model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, listings)
	r.users = append(r.users, user)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// failingStore fails Exists or Insert when the matching error is set.
type failingStore struct {
	*store.MemoryStore
	existsErr error
	insertErr error
}

func (s *failingStore) Exists(ctx context.Context, key model.Key) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.MemoryStore.Exists(ctx, key)
}

func (s *failingStore) Insert(ctx context.Context, l model.Listing) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	return s.MemoryStore.Insert(ctx, l)
}

// cancellingStore cancels the caller's context after its first successful
// Insert and fails every call made under a cancelled context.
type cancellingStore struct {
	*store.MemoryStore
	cancel context.CancelFunc
	once   sync.Once
}

func (s *cancellingStore) Exists(ctx context.Context, key model.Key) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.MemoryStore.Exists(ctx, key)
}

func (s *cancellingStore) Insert(ctx context.Context, l model.Listing) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	created, err := s.MemoryStore.Insert(ctx, l)
	s.once.Do(s.cancel)
	return created, err
}

func raw(title, link string) model.RawListing {
	return model.RawListing{Title: title, Link: link, Description: "Python and AWS\nRemote"}
}

func listing(title, link string) model.Listing {
	return model.Listing{Source: model.SourceLinkedIn, SearchTerm: "python", Title: title, Link: link}
}

func newTestPipeline(a *fakeAdapter, st model.ListingStore, n model.Notifier) *Pipeline {
	norm := normalize.NewNormalizer(normalize.NewTagExtractor(nil), func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	})
	return New(fakeLookup{a.source: a}, norm, st, n, Config{FetchTimeout: time.Second}, discardLogger())
}

func TestSearch_NewThenKnown(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{
		raw("A", "https://example.com/x"),
		raw("A", "https://example.com/x"),
		raw("B", "https://example.com/y"),
	}}
	st := store.NewMemoryStore()
	n := &recordingNotifier{}
	p := newTestPipeline(a, st, n)
	req := Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"}

	resp, err := p.Search(context.Background(), req)
	p.Wait()
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Jobs) != 2 || !resp.NewJobFound || len(resp.NewJobs) != 2 {
		t.Fatalf("first search: jobs=%d newJobFound=%v newJobs=%d", len(resp.Jobs), resp.NewJobFound, len(resp.NewJobs))
	}
	if c, _ := st.Count(context.Background()); c != 2 {
		t.Errorf("store rows = %d, want 2", c)
	}
	if n.count() != 1 || len(n.calls[0]) != 2 || n.users[0] != "alice" {
		t.Fatalf("notify calls = %d, want one call with 2 listings", n.count())
	}
	if resp.Jobs[0].Tags == nil || resp.Jobs[0].Tags[0] != "python" {
		t.Errorf("tags = %v, want python first", resp.Jobs[0].Tags)
	}

	resp, err = p.Search(context.Background(), req)
	p.Wait()
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}
	if len(resp.Jobs) != 2 || resp.NewJobFound || len(resp.NewJobs) != 0 {
		t.Errorf("second search: jobs=%d newJobFound=%v newJobs=%d", len(resp.Jobs), resp.NewJobFound, len(resp.NewJobs))
	}
	if c, _ := st.Count(context.Background()); c != 2 {
		t.Errorf("store rows after repeat = %d, want 2", c)
	}
	if n.count() != 1 {
		t.Errorf("notify calls after repeat = %d, want 1", n.count())
	}
}

func TestSearch_UnsupportedSource(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn}
	st := store.NewMemoryStore()
	n := &recordingNotifier{}
	p := newTestPipeline(a, st, n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: "unknown-site", User: "alice"})
	var unsupported *model.UnsupportedSourceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want UnsupportedSourceError", err)
	}
	if resp.Error == "" || resp.Jobs != nil {
		t.Errorf("response = %+v, want error only", resp)
	}
	if Failure(err) != FailureInvalid {
		t.Errorf("Failure() = %v, want FailureInvalid", Failure(err))
	}
	if c, _ := st.Count(context.Background()); c != 0 {
		t.Errorf("store rows = %d, want 0", c)
	}
	if a.calls != 0 || n.count() != 0 {
		t.Errorf("adapter calls = %d, notify calls = %d", a.calls, n.count())
	}
}

func TestSearch_Validation(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn}
	p := newTestPipeline(a, store.NewMemoryStore(), nil)

	for _, req := range []Request{
		{Term: "   ", Source: model.SourceLinkedIn},
		{Term: "python"},
	} {
		_, err := p.Search(context.Background(), req)
		var validation *model.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Search(%+v) error = %v, want ValidationError", req, err)
		}
	}
	if a.calls != 0 {
		t.Errorf("adapter called %d times on invalid input", a.calls)
	}
}

func TestSearch_FetchErrorLeavesStoreUntouched(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, err: &model.HTTPError{StatusCode: 503}}
	st := store.NewMemoryStore()
	n := &recordingNotifier{}
	p := newTestPipeline(a, st, n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"})
	p.Wait()
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 503 {
		t.Errorf("cause = %v, want HTTP 503", err)
	}
	if Failure(err) != FailureUpstream {
		t.Errorf("Failure() = %v, want FailureUpstream", Failure(err))
	}
	if resp.Error == "" {
		t.Error("response carries no error message")
	}
	if c, _ := st.Count(context.Background()); c != 0 || n.count() != 0 {
		t.Errorf("rows = %d, notify calls = %d; want none", c, n.count())
	}
}

func TestSearch_FetchTimeout(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, block: true}
	norm := normalize.NewNormalizer(nil, nil)
	p := New(fakeLookup{a.source: a}, norm, store.NewMemoryStore(), nil, Config{FetchTimeout: 20 * time.Millisecond}, discardLogger())

	_, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn})
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded in chain", err)
	}
}

func TestSearch_NoUserSkipsNotify(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{raw("A", "https://example.com/x")}}
	n := &recordingNotifier{}
	p := newTestPipeline(a, store.NewMemoryStore(), n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn})
	p.Wait()
	if err != nil || !resp.NewJobFound {
		t.Fatalf("Search() = %+v, %v", resp, err)
	}
	if n.count() != 0 {
		t.Errorf("notify calls = %d, want 0 without a user", n.count())
	}
}

func TestSearch_NotifyFailureDoesNotFailResponse(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{raw("A", "https://example.com/x")}}
	n := &recordingNotifier{err: &model.NotifyError{User: "alice", Err: errors.New("smtp down")}}
	p := newTestPipeline(a, store.NewMemoryStore(), n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"})
	p.Wait()
	if err != nil || !resp.NewJobFound || len(resp.NewJobs) != 1 {
		t.Fatalf("Search() = %+v, %v", resp, err)
	}
}

func TestSearch_NotifyOutlivesRequestContext(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{raw("A", "https://example.com/x")}}
	var notifyCtxErr error
	n := notifierFunc(func(ctx context.Context, _ string, _ []model.Listing) error {
		notifyCtxErr = ctx.Err()
		return nil
	})
	p := newTestPipeline(a, store.NewMemoryStore(), n)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := p.Search(ctx, Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	cancel()
	p.Wait()
	if notifyCtxErr != nil {
		t.Errorf("notify context err = %v, want nil", notifyCtxErr)
	}
}

type notifierFunc func(ctx context.Context, user string, listings []model.Listing) error

func (f notifierFunc) Notify(ctx context.Context, user string, listings []model.Listing) error {
	return f(ctx, user, listings)
}

func TestSearch_EmptyBatch(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn}
	n := &recordingNotifier{}
	p := newTestPipeline(a, store.NewMemoryStore(), n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"})
	p.Wait()
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	b, _ := json.Marshal(resp)
	if string(b) != `{"jobs":[],"newJobFound":false,"newJobs":[]}` {
		t.Errorf("payload = %s", b)
	}
	if n.count() != 0 {
		t.Errorf("notify calls = %d, want 0", n.count())
	}
}

func TestSearch_StoreErrorsTreatedAsKnown(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{raw("A", "https://example.com/x")}}
	st := &failingStore{MemoryStore: store.NewMemoryStore(), existsErr: errors.New("db down")}
	n := &recordingNotifier{}
	p := newTestPipeline(a, st, n)

	resp, err := p.Search(context.Background(), Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"})
	p.Wait()
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Jobs) != 1 || resp.NewJobFound || n.count() != 0 {
		t.Errorf("resp = %+v, notify calls = %d", resp, n.count())
	}
}

func TestDedupe(t *testing.T) {
	in := []model.Listing{
		listing("A", "/x"),
		listing("A", "/x"),
		listing("B", "/y"),
		listing("A", "/z"),
		listing("B", "/y"),
	}
	once := Dedupe(in)
	if len(once) != 3 {
		t.Fatalf("Dedupe() len = %d, want 3", len(once))
	}
	want := []string{"A/x", "B/y", "A/z"}
	for i, l := range once {
		if got := l.Title + l.Link; got != want[i] {
			t.Errorf("Dedupe()[%d] = %s, want %s", i, got, want[i])
		}
	}

	twice := Dedupe(once)
	if len(twice) != len(once) {
		t.Errorf("Dedupe not idempotent: %d then %d", len(once), len(twice))
	}
	if out := Dedupe(nil); out == nil || len(out) != 0 {
		t.Errorf("Dedupe(nil) = %v, want empty non-nil", out)
	}
}

func TestNoveltyFilter_Monotonic(t *testing.T) {
	st := store.NewMemoryStore()
	f := NewNoveltyFilter(st, discardLogger())
	batch := []model.Listing{listing("A", "/x"), listing("B", "/y")}

	_, fresh := f.Partition(context.Background(), batch)
	if len(fresh) != 2 {
		t.Fatalf("first Partition fresh = %d, want 2", len(fresh))
	}
	for i := 0; i < 3; i++ {
		known, fresh := f.Partition(context.Background(), batch)
		if len(known) != 2 || len(fresh) != 0 {
			t.Errorf("round %d: known=%d fresh=%d", i, len(known), len(fresh))
		}
	}
}

func TestNoveltyFilter_ConcurrentPartitionsClaimEachKeyOnce(t *testing.T) {
	st := store.NewMemoryStore()
	f := NewNoveltyFilter(st, discardLogger())

	var batch []model.Listing
	for i := 0; i < 50; i++ {
		batch = append(batch, listing(fmt.Sprintf("Job %d", i), fmt.Sprintf("/%d", i)))
	}

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, fresh := f.Partition(context.Background(), batch)
			mu.Lock()
			total += len(fresh)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != len(batch) {
		t.Errorf("fresh across workers = %d, want %d", total, len(batch))
	}
	if c, _ := st.Count(context.Background()); c != len(batch) {
		t.Errorf("rows = %d, want %d", c, len(batch))
	}
}

func TestNoveltyFilter_InsertErrors(t *testing.T) {
	tests := []struct {
		name      string
		insertErr error
	}{
		{"duplicate key", &model.DuplicateKeyError{Key: listing("A", "/x").Key()}},
		{"write failure", errors.New("disk full")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &failingStore{MemoryStore: store.NewMemoryStore(), insertErr: tt.insertErr}
			f := NewNoveltyFilter(st, discardLogger())
			known, fresh := f.Partition(context.Background(), []model.Listing{listing("A", "/x")})
			if len(known) != 1 || len(fresh) != 0 {
				t.Errorf("known=%d fresh=%d, want 1/0", len(known), len(fresh))
			}
		})
	}
}

func TestFailure(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{nil, FailureNone},
		{&model.ValidationError{Field: "query"}, FailureInvalid},
		{&model.UnsupportedSourceError{Source: "x"}, FailureInvalid},
		{&model.FetchError{Source: model.SourceIndeed, Err: errors.New("boom")}, FailureUpstream},
		{errors.New("other"), FailureInternal},
	}
	for _, tt := range tests {
		if got := Failure(tt.err); got != tt.want {
			t.Errorf("Failure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStage_String(t *testing.T) {
	if StageFiltering.String() != "filtering" || Stage(99).String() != "stage(99)" {
		t.Errorf("unexpected stage names %q %q", StageFiltering, Stage(99))
	}
}

func TestSearch_CallerCancelDuringFilteringStoresWholeBatch(t *testing.T) {
	a := &fakeAdapter{source: model.SourceLinkedIn, raws: []model.RawListing{
		raw("A", "https://example.com/a"),
		raw("B", "https://example.com/b"),
		raw("C", "https://example.com/c"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := &cancellingStore{MemoryStore: store.NewMemoryStore(), cancel: cancel}
	n := &recordingNotifier{}
	p := newTestPipeline(a, st, n)

	resp, err := p.Search(ctx, Request{Term: "python", Source: model.SourceLinkedIn, User: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Wait()

	if ctx.Err() == nil {
		t.Fatal("expected the caller context to be cancelled by the store")
	}
	if len(resp.NewJobs) != 3 || !resp.NewJobFound {
		t.Errorf("expected all 3 listings fresh, got %d", len(resp.NewJobs))
	}
	if count, _ := st.Count(context.Background()); count != 3 {
		t.Errorf("expected 3 stored listings, got %d", count)
	}
	if n.count() != 1 {
		t.Errorf("expected 1 notification, got %d", n.count())
	}
}
