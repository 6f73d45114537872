package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFetchError_UnwrapsHTTPError(t *testing.T) {
	inner := &HTTPError{StatusCode: 503, Err: errors.New("unavailable")}
	err := fmt.Errorf("wrapped: %w", &FetchError{Source: SourceIndeed, Term: "go", Err: inner})

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatal("expected FetchError in chain")
	}
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != 503 {
		t.Errorf("expected HTTPError 503 in chain, got %v", he)
	}
}

func TestFetchError_UnwrapsDeadline(t *testing.T) {
	err := &FetchError{Source: SourceLinkedIn, Term: "python", Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is(err, DeadlineExceeded)")
	}
}

func TestListingKey(t *testing.T) {
	l := Listing{Source: SourceRemoteOK, SearchTerm: "rust", Title: "Engineer", Link: "https://x/1", Company: "Acme"}
	want := Key{Source: SourceRemoteOK, SearchTerm: "rust", Title: "Engineer", Link: "https://x/1"}
	if l.Key() != want {
		t.Errorf("Key() = %+v, want %+v", l.Key(), want)
	}
}

func TestTagString(t *testing.T) {
	l := Listing{Tags: []string{"python", "django", "aws"}}
	if got := l.TagString(); got != "python, django, aws" {
		t.Errorf("TagString() = %q", got)
	}
}
