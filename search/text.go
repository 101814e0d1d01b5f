package search

import (
	"strconv"
	"strings"
	"unicode"
)

// Department abbreviations expanded before fuzzy matching so that a query
// like "cs" also hits "computer science" course names.
var departmentAbbreviations = map[string]string{
	"cs":     "computer science",
	"comp":   "computer science",
	"bio":    "biology",
	"chem":   "chemistry",
	"math":   "mathematics",
	"calc":   "calculus",
	"phys":   "physics",
	"psych":  "psychology",
	"econ":   "economics",
	"stat":   "statistics",
	"stats":  "statistics",
	"phil":   "philosophy",
	"anthro": "anthropology",
	"poli":   "political science",
	"lit":    "literature",
	"eng":    "engineering",
	"ee":     "electrical engineering",
	"me":     "mechanical engineering",
	"geo":    "geography",
	"astro":  "astronomy",
}

// normalizeCode lowercases a course code and strips all whitespace, so
// "comp sci 220", "COMP SCI 220" and "compsci220" compare equal.
func normalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// numericSuffix extracts the trailing course number from a code, e.g.
// "COMP SCI 220" -> 220. Codes without one sort last.
func numericSuffix(code string) int {
	end := len(code)
	start := end
	for start > 0 && code[start-1] >= '0' && code[start-1] <= '9' {
		start--
	}
	if start == end {
		return 1 << 30
	}
	n, err := strconv.Atoi(code[start:end])
	if err != nil {
		return 1 << 30
	}
	return n
}

// splitLetterDigit inserts a space between a letter run and the digits
// that follow it, turning "cs220" into "cs 220".
func splitLetterDigit(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsDigit(r) && unicode.IsLetter(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// expandQuery prepares a free-text query for the fuzzy tier: lowercase,
// split glued letter-digit pairs, and expand known department
// abbreviations to their full names.
func expandQuery(query string) string {
	lowered := strings.ToLower(strings.TrimSpace(query))
	split := splitLetterDigit(lowered)

	words := strings.Fields(split)
	expanded := make([]string, 0, len(words))
	for _, word := range words {
		if full, ok := departmentAbbreviations[word]; ok {
			expanded = append(expanded, full)
		} else {
			expanded = append(expanded, word)
		}
	}
	return strings.Join(expanded, " ")
}
