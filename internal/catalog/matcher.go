package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kiwari-pos/tableside/internal/database"
)

const (
	exactWeight  = 2
	prefixWeight = 1

	// minPrefixLen keeps "ch" from matching every "chicken" and "chai".
	minPrefixLen = 3
)

// candidate is a catalog item with its pre-tokenized name and keywords.
type candidate struct {
	name   string
	tokens []string
}

// Matcher ranks catalog items against free text typed by floor staff.
type Matcher struct {
	candidates []candidate
}

// NewMatcher pre-tokenizes item names and their keyword CSV.
func NewMatcher(items []database.Item) *Matcher {
	m := &Matcher{candidates: make([]candidate, 0, len(items))}
	for _, item := range items {
		seen := make(map[string]bool)
		var tokens []string
		add := func(s string) {
			for _, tok := range tokenize(normalize(s)) {
				if !seen[tok] {
					seen[tok] = true
					tokens = append(tokens, tok)
				}
			}
		}
		add(item.Name)
		for _, kw := range strings.Split(item.Keywords, ",") {
			add(kw)
		}
		m.candidates = append(m.candidates, candidate{name: item.Name, tokens: tokens})
	}
	return m
}

// Suggest returns up to limit item names that share tokens with text,
// best score first and alphabetical among equals.
func (m *Matcher) Suggest(text string, limit int) []string {
	input := tokenize(normalize(text))
	if len(input) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		name  string
		score int
	}
	var results []scored
	for _, c := range m.candidates {
		score := 0
		for _, in := range input {
			score += tokenScore(in, c.tokens)
		}
		if score > 0 {
			results = append(results, scored{name: c.name, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].name < results[j].name
	})

	if len(results) == 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.name
	}
	return names
}

func tokenScore(in string, tokens []string) int {
	best := 0
	for _, tok := range tokens {
		if tok == in {
			return exactWeight
		}
		if len(in) >= minPrefixLen && (strings.HasPrefix(tok, in) || (strings.HasPrefix(in, tok) && len(tok) >= minPrefixLen)) {
			best = prefixWeight
		}
	}
	return best
}

// normalize converts a string to lowercase and replaces non-alphanumeric chars with spaces
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// tokenize splits a string on whitespace
func tokenize(s string) []string {
	return strings.Fields(s)
}
