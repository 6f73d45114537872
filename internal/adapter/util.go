package adapter

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>`)
	blockTagRegex = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6]|/tr)\s*/?>`)
	listItemRegex = regexp.MustCompile(`(?i)<\s*li(\s[^>]*)?>`)
)

// extractText converts an HTML or HTML-encoded string to a single line of
// plain text. Entities are unescaped first, then tags stripped and whitespace
// collapsed.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// extractLines is extractText that keeps block boundaries as line breaks, so
// a description's first lines stay meaningful after flattening.
func extractLines(content string) string {
	unescaped := html.UnescapeString(content)
	unescaped = blockTagRegex.ReplaceAllString(unescaped, "\n")
	unescaped = listItemRegex.ReplaceAllString(unescaped, "\n- ")
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return compactLines(plain)
}

// compactLines collapses whitespace within each line and drops blank lines.
func compactLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || line == "-" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// resolveLink makes href absolute against the site origin. Links that
// already carry a scheme are returned unchanged.
func resolveLink(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", href, err)
	}
	if ref.Scheme != "" {
		return ref.String(), nil
	}
	origin, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base %q: %w", base, err)
	}
	origin.Path, origin.RawQuery, origin.Fragment = "", "", ""
	return origin.ResolveReference(ref).String(), nil
}

// missingField reports the first missing field required of every listing.
func missingField(title, link, description string) error {
	switch {
	case title == "":
		return fmt.Errorf("missing title")
	case link == "":
		return fmt.Errorf("missing link")
	case description == "":
		return fmt.Errorf("missing description")
	}
	return nil
}
