package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobscout/internal/model"
)

const remoteOKPayload = `[
	{"last_updated": 1769784074, "legal": "API Terms of Service apply"},
	{
		"id": "1001",
		"position": "Senior Python Engineer",
		"company": "Acme",
		"location": "Worldwide",
		"tags": ["python", "backend"],
		"description": "<p>Django APIs</p><p>PostgreSQL &amp; Redis</p>",
		"url": "https://remoteok.com/remote-jobs/1001"
	},
	{
		"id": "1002",
		"position": "Frontend Engineer",
		"company": "Globex",
		"tags": ["react"],
		"description": "<p>React</p>",
		"url": "https://remoteok.com/remote-jobs/1002"
	},
	{
		"id": "1003",
		"position": "Python Data Engineer",
		"company": "Initech",
		"tags": ["Python"],
		"description": "<p>Airflow</p>",
		"url": "/remote-jobs/1003"
	},
	{
		"id": "1004",
		"position": "",
		"tags": ["python"],
		"description": "<p>No title</p>",
		"url": "https://remoteok.com/remote-jobs/1004"
	}
]`

func TestRemoteOKAdapter_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") != "python" {
			t.Errorf("tag = %q", r.URL.Query().Get("tag"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(remoteOKPayload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(Options{BaseURL: srv.URL}, discardLogger())
	teardowns := 0
	a.onTeardown = func() { teardowns++ }

	got, err := a.Fetch(context.Background(), "Python")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 listings, got %d: %+v", len(got), got)
	}

	j := got[0]
	if j.Title != "Senior Python Engineer" || j.Company != "Acme" || j.Location != "Worldwide" {
		t.Errorf("unexpected listing %+v", j)
	}
	if j.Description != "Django APIs\nPostgreSQL & Redis" {
		t.Errorf("Description = %q", j.Description)
	}
	if got[1].Link != srv.URL+"/remote-jobs/1003" {
		t.Errorf("relative link not resolved: %q", got[1].Link)
	}
	if got[1].Location != "Remote" {
		t.Errorf("default location = %q", got[1].Location)
	}
	if teardowns != 1 {
		t.Errorf("expected 1 teardown, got %d", teardowns)
	}
}

func TestRemoteOKAdapter_Fetch_MultiWordTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") != "machine-learning" {
			t.Errorf("tag = %q", r.URL.Query().Get("tag"))
		}
		w.Write([]byte(`[{"legal": "terms"}]`))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(Options{BaseURL: srv.URL}, discardLogger())
	got, err := a.Fetch(context.Background(), "Machine  Learning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no listings, got %d", len(got))
	}
}

func TestRemoteOKAdapter_Fetch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(Options{BaseURL: srv.URL}, discardLogger())
	teardowns := 0
	a.onTeardown = func() { teardowns++ }

	_, err := a.Fetch(context.Background(), "python")
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *model.FetchError, got %v", err)
	}
	if teardowns != 1 {
		t.Errorf("expected teardown on failure, got %d", teardowns)
	}
}

func TestRemoteOKAdapter_Fetch_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(Options{BaseURL: srv.URL}, discardLogger())
	_, err := a.Fetch(context.Background(), "python")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped 503, got %v", err)
	}
}
