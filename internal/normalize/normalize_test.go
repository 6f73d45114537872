package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestShortDescription_TruncatesToThreeLines(t *testing.T) {
	got := ShortDescription("one\ntwo\nthree\nfour\nfive")
	if got != "one\ntwo\nthree" {
		t.Errorf("ShortDescription = %q", got)
	}
}

func TestShortDescription_FewerLinesUnchanged(t *testing.T) {
	if got := ShortDescription("only line"); got != "only line" {
		t.Errorf("ShortDescription = %q", got)
	}
	if got := ShortDescription("a\nb"); got != "a\nb" {
		t.Errorf("ShortDescription = %q", got)
	}
}

func TestExtract_VocabularyOrderCaseInsensitive(t *testing.T) {
	e := NewTagExtractor([]string{"python", "Django", "AWS", "rust"})
	got := e.Extract("We run DJANGO on aws. Python 3.12 required.")
	want := []string{"python", "Django", "AWS"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_NoMatchReturnsEmpty(t *testing.T) {
	e := NewTagExtractor([]string{"kotlin"})
	got := e.Extract("plain text")
	if got == nil || len(got) != 0 {
		t.Errorf("Extract = %#v, want empty non-nil slice", got)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewTagExtractor(nil)
	text := "Backend role: Golang, PostgreSQL, Kubernetes, Kafka and a bit of Python."
	first := e.Extract(text)
	for i := 0; i < 5; i++ {
		if got := e.Extract(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestNewTagExtractor_DropsBlankAndDuplicates(t *testing.T) {
	e := NewTagExtractor([]string{"go", " ", "GO", "sql"})
	if got := e.Vocabulary(); !reflect.DeepEqual(got, []string{"go", "sql"}) {
		t.Errorf("Vocabulary = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(NewTagExtractor([]string{"python", "docker"}), fixedClock)
	raw := model.RawListing{
		Title:       "  Python Developer ",
		Link:        "https://example.com/jobs/1",
		Description: "Python backend\nDocker-based deploys\nRemote\nBenefits",
		Company:     "Acme",
	}

	l := n.Normalize(raw, model.SourceLinkedIn, "python")

	if l.Title != "Python Developer" {
		t.Errorf("Title = %q", l.Title)
	}
	if l.Source != model.SourceLinkedIn || l.SearchTerm != "python" {
		t.Errorf("Source/SearchTerm = %s/%s", l.Source, l.SearchTerm)
	}
	if l.ShortDescription != "Python backend\nDocker-based deploys\nRemote" {
		t.Errorf("ShortDescription = %q", l.ShortDescription)
	}
	if l.FullDescription != raw.Description {
		t.Errorf("FullDescription = %q", l.FullDescription)
	}
	if !reflect.DeepEqual(l.Tags, []string{"python", "docker"}) {
		t.Errorf("Tags = %v", l.Tags)
	}
	if !l.FirstSeenAt.Equal(fixedClock()) {
		t.Errorf("FirstSeenAt = %v", l.FirstSeenAt)
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	n := NewNormalizer(nil, fixedClock)
	raws := []model.RawListing{
		{Title: "B", Link: "/b", Description: "x"},
		{Title: "A", Link: "/a", Description: "y"},
	}
	got := n.NormalizeAll(raws, model.SourceIndeed, "go")
	if len(got) != 2 || got[0].Title != "B" || got[1].Title != "A" {
		t.Errorf("NormalizeAll order = %+v", got)
	}
}
