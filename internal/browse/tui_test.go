package browse

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobscout/internal/model"
)

func listingAt(title string, seen time.Time) model.Listing {
	return model.Listing{
		Source:          model.SourceIndeed,
		SearchTerm:      "go",
		Title:           title,
		Link:            "https://example.com/" + title,
		Company:         "Acme",
		Location:        "Remote",
		FullDescription: "Build services in Go",
		FirstSeenAt:     seen,
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(m browserModel) browserModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(browserModel)
}

func press(t *testing.T, m browserModel, keys ...string) browserModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(browserModel)
	}
	return m
}

func TestBrowser_NavigateAndOpenDetail(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	left := Pane{Title: "All", Listings: []model.Listing{listingAt("a", now), listingAt("b", now), listingAt("c", now)}}
	right := Pane{Title: "New", Listings: []model.Listing{listingAt("z", now)}}

	var opened string
	m := newBrowserModel(left, right)
	m.openURL = func(u string) { opened = u }
	m = sized(m)

	m = press(t, m, "j", "j", "j")
	if m.panes[0].cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.panes[0].cursor)
	}

	m = press(t, m, "enter")
	if m.view != viewDetail || m.detail.Title != "c" {
		t.Fatalf("view = %v, detail = %q", m.view, m.detail.Title)
	}
	if !strings.Contains(m.renderDetail(), "https://example.com/c") {
		t.Error("detail does not show the link")
	}

	m = press(t, m, "o")
	if opened != "https://example.com/c" {
		t.Errorf("opened = %q", opened)
	}

	m = press(t, m, "r")
	if !m.showDescription || !strings.Contains(m.renderDetail(), "Build services in Go") {
		t.Error("r did not reveal the description")
	}

	m = press(t, m, "esc", "tab", "enter")
	if m.detail.Title != "z" {
		t.Errorf("detail after switching pane = %q, want z", m.detail.Title)
	}
}

func TestBrowser_EmptyPaneEnterIsNoop(t *testing.T) {
	m := sized(newBrowserModel(Pane{Title: "All"}, Pane{Title: "New"}))
	m = press(t, m, "enter")
	if m.view != viewList {
		t.Error("enter on empty pane opened detail view")
	}
	if !strings.Contains(m.View(), "(no listings)") {
		t.Error("empty pane placeholder missing")
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ls := []model.Listing{listingAt("old", base), listingAt("new", base.Add(time.Hour)), listingAt("mid", base.Add(time.Minute))}
	sortNewestFirst(ls)
	if ls[0].Title != "new" || ls[1].Title != "mid" || ls[2].Title != "old" {
		t.Errorf("order = %s, %s, %s", ls[0].Title, ls[1].Title, ls[2].Title)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four\nfive", 9)
	want := "one two\nthree\nfour\nfive"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}

func TestPicker(t *testing.T) {
	m := pickerModel{title: "Pick", items: []string{"linkedin", "indeed"}, chosen: -1}
	next, _ := m.Update(key("j"))
	next, _ = next.(pickerModel).Update(key("enter"))
	if got := next.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}

	next, _ = m.Update(key("q"))
	if got := next.(pickerModel).chosen; got != -2 {
		t.Errorf("chosen after quit = %d, want -2", got)
	}
}
