package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultVocabulary is the keyword list scanned for tags when config provides none.
// Order here is the order tags are reported in.
var DefaultVocabulary = []string{
	"python", "java", "javascript", "typescript", "golang", "rust", "c++", "c#",
	"ruby", "php", "kotlin", "swift", "scala", "sql",
	"react", "angular", "vue", "node", "django", "flask", "spring",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "linux",
	"postgresql", "mongodb", "redis", "kafka", "graphql", "machine learning",
}

// TagExtractor matches a fixed keyword vocabulary against free text.
// Matching is a case-insensitive substring test using Unicode case folding.
type TagExtractor struct {
	vocabulary []string
	folded     []string
}

// NewTagExtractor returns an extractor for vocabulary. Blank and repeated
// keywords are dropped; an empty vocabulary falls back to DefaultVocabulary.
func NewTagExtractor(vocabulary []string) *TagExtractor {
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}
	e := &TagExtractor{}
	seen := make(map[string]bool, len(vocabulary))
	for _, kw := range vocabulary {
		kw = strings.TrimSpace(kw)
		f := fold(kw)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		e.vocabulary = append(e.vocabulary, kw)
		e.folded = append(e.folded, f)
	}
	return e
}

// Extract returns the vocabulary keywords present in text, in vocabulary order.
func (e *TagExtractor) Extract(text string) []string {
	haystack := fold(text)
	tags := []string{}
	for i, kw := range e.folded {
		if strings.Contains(haystack, kw) {
			tags = append(tags, e.vocabulary[i])
		}
	}
	return tags
}

// Vocabulary returns a copy of the keywords in match order.
func (e *TagExtractor) Vocabulary() []string {
	return append([]string(nil), e.vocabulary...)
}

// fold builds a fresh Caser per call; Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
