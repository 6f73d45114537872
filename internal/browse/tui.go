// Package browse holds the terminal UI: a spinner for long searches, a
// picker, and a two-pane listing browser with a detail view.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/model"
)

// Lines per listing in a pane (title + subtitle + blank separator).
const listingItemHeight = 3

const timeLayout = "2006-01-02 15:04 MST"

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Pane is one titled column of listings.
type Pane struct {
	Title    string
	Listings []model.Listing
}

type pane struct {
	Pane
	viewport viewport.Model
	cursor   int
}

type browserModel struct {
	panes      [2]pane
	activePane int
	width      int
	height     int
	ready      bool

	view            viewState
	detail          model.Listing
	detailViewport  viewport.Model
	showDescription bool

	openURL func(string)
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}
	return m, nil
}

func (m browserModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView(), nil
	}

	// pgup/pgdn/home/end go to the active viewport.
	var cmd tea.Cmd
	p := &m.panes[m.activePane]
	p.viewport, cmd = p.viewport.Update(msg)
	return m, cmd
}

func (m browserModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.openURL != nil {
			m.openURL(m.detail.Link)
		}
		return m, nil
	case "r":
		if m.detail.FullDescription != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browserModel) moveCursor(delta int) {
	p := &m.panes[m.activePane]
	p.cursor = clamp(p.cursor+delta, 0, max(len(p.Listings)-1, 0))
}

func (m *browserModel) ensureCursorVisible() {
	p := &m.panes[m.activePane]
	top := p.cursor * listingItemHeight
	bottom := top + listingItemHeight - 1

	if top < p.viewport.YOffset {
		p.viewport.SetYOffset(top)
	} else if bottom >= p.viewport.YOffset+p.viewport.Height {
		p.viewport.SetYOffset(bottom - p.viewport.Height + 1)
	}
}

func (m browserModel) openDetailView() browserModel {
	p := m.panes[m.activePane]
	if len(p.Listings) == 0 {
		return m
	}
	m.view = viewDetail
	m.detail = p.Listings[p.cursor]
	m.showDescription = false
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(m.renderDetail())
	return m
}

func (m *browserModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)
	// Header (1 line) + border top/bottom (2) + status bar (1).
	paneHeight := max(m.height-4, 5)

	for i := range m.panes {
		if !m.ready {
			m.panes[i].viewport = viewport.New(paneWidth, paneHeight)
		} else {
			m.panes[i].viewport.Width = paneWidth
			m.panes[i].viewport.Height = paneHeight
		}
	}
	m.ready = true
	m.recalcContent()
}

func (m *browserModel) recalcContent() {
	for i := range m.panes {
		p := &m.panes[i]
		p.viewport.SetContent(renderListings(p.Listings, p.cursor, m.activePane == i))
	}
}

func (m browserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browserModel) viewList() string {
	paneWidth := m.panes[0].viewport.Width

	var headers, bodies [2]string
	for i, p := range m.panes {
		label := fmt.Sprintf(" %s (%d)", p.Title, len(p.Listings))
		hs, bs := inactiveHeaderStyle, inactiveBorderStyle
		if i == m.activePane {
			hs, bs = activeHeaderStyle, activeBorderStyle
		}
		headers[i] = lipgloss.NewStyle().Width(paneWidth + 2).Render(hs.Render(label))
		bodies[i] = bs.Width(paneWidth).Render(p.viewport.View())
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headers[0], " ", headers[1])
	panes := lipgloss.JoinHorizontal(lipgloss.Top, bodies[0], " ", bodies[1])

	statusText := fmt.Sprintf(" %d %s | %d %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
		len(m.panes[0].Listings), strings.ToLower(m.panes[0].Title),
		len(m.panes[1].Listings), strings.ToLower(m.panes[1].Title))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browserModel) viewDetail() string {
	title := detailTitleStyle.Render("Listing Details")
	content := activeBorderStyle.Width(max(m.width-2, 20)).Render(m.detailViewport.View())

	statusText := " o open link  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detail.FullDescription != "" {
		statusText = " o open link  r description  esc/backspace back  ↑/↓ scroll  q quit"
	}
	return title + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(statusText)
}

func (m browserModel) renderDetail() string {
	l := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", l.Title)
	addField("Company", l.Company)
	addField("Location", l.Location)
	addField("Source", string(l.Source))
	addField("Search", l.SearchTerm)
	if !l.FirstSeenAt.IsZero() {
		addField("First Seen", l.FirstSeenAt.Local().Format(timeLayout))
	}
	addField("Tags", l.TagString())
	b.WriteByte('\n')
	addField("Link", l.Link)

	wrapWidth := max(m.width-8, 20)
	if l.ShortDescription != "" {
		b.WriteByte('\n')
		b.WriteString(bodyStyle.Render(wordWrap(l.ShortDescription, wrapWidth)) + "\n")
	}

	if l.FullDescription != "" {
		b.WriteByte('\n')
		if m.showDescription {
			label := "── Description "
			b.WriteString(dividerStyle.Render(label+strings.Repeat("─", max(wrapWidth-len(label), 3))) + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(l.FullDescription, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the full description") + "\n")
		}
	}
	return b.String()
}

func renderListings(listings []model.Listing, cursor int, isActive bool) string {
	if len(listings) == 0 {
		return "  (no listings)"
	}

	var b strings.Builder
	for i, l := range listings {
		ts, ss := titleStyle, subtitleStyle
		prefix := "  "
		if isActive && i == cursor {
			ts, ss = selectedTitleStyle, selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(ts.Render(l.Title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(ss.Render(subtitle(l)))
		b.WriteByte('\n')

		if i < len(listings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func subtitle(l model.Listing) string {
	parts := make([]string, 0, 3)
	if l.Company != "" {
		parts = append(parts, l.Company)
	}
	if l.Location != "" {
		parts = append(parts, l.Location)
	}
	seen := "n/a"
	if !l.FirstSeenAt.IsZero() {
		seen = l.FirstSeenAt.Local().Format("2006-01-02")
	}
	parts = append(parts, seen)
	return strings.Join(parts, " · ")
}

// sortNewestFirst orders listings by first sighting, newest first.
func sortNewestFirst(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].FirstSeenAt.After(listings[j].FirstSeenAt)
	})
}

// wordWrap wraps each paragraph of text at width, keeping line breaks.
func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openInBrowser opens url in the default system browser, fire-and-forget.
func openInBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the full-screen two-pane browser. Each pane is sorted newest
// first before display.
func Run(left, right Pane) error {
	sortNewestFirst(left.Listings)
	sortNewestFirst(right.Listings)

	m := newBrowserModel(left, right)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func newBrowserModel(left, right Pane) browserModel {
	return browserModel{
		panes:   [2]pane{{Pane: left}, {Pane: right}},
		openURL: openInBrowser,
	}
}
