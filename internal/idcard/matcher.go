package idcard

import (
	"regexp"
	"strings"
)

// Matcher finds a field in upper-cased document text. On success groups[0]
// is the whole matched text and groups[1:] are the captures.
type Matcher interface {
	Match(text string) (groups []string, ok bool)
}

// NameOrder tells how a two-capture name pattern maps its groups.
type NameOrder int

const (
	// GivenFamily maps group 1 to the first name and group 2 to the last name.
	GivenFamily NameOrder = iota
	// FamilyGiven maps group 1 to the last name and group 2 to the first name.
	FamilyGiven
)

// Pattern is one entry of a field's ordered pattern list.
type Pattern struct {
	Matcher
	Order NameOrder
}

// Ordered returns a copy of p with a different group order.
func (p Pattern) Ordered(order NameOrder) Pattern {
	p.Order = order
	return p
}

// RegexMatcher applies a regular expression to the whole text.
type RegexMatcher struct {
	re *regexp.Regexp
}

func (m RegexMatcher) Match(text string) ([]string, bool) {
	groups := m.re.FindStringSubmatch(text)
	return groups, groups != nil
}

func (m RegexMatcher) String() string {
	return m.re.String()
}

// LineMatcher applies an anchored expression line by line, skipping lines
// that contain any of the skip words (document headers such as
// "DRIVER LICENSE" look exactly like a two-word name).
type LineMatcher struct {
	re   *regexp.Regexp
	skip []string
}

func (m LineMatcher) Match(text string) ([]string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || containsAny(line, m.skip) {
			continue
		}
		if groups := m.re.FindStringSubmatch(line); groups != nil {
			return groups, true
		}
	}
	return nil, false
}

func (m LineMatcher) String() string {
	return "line:" + m.re.String()
}

// headerWords appear in document titles and never in a holder's name line.
var headerWords = []string{
	"DRIVER", "LICENSE", "LICENCE", "PASSPORT", "IDENTITY", "IDENTIFICATION",
	"CARD", "NATIONAL", "REPUBLIC", "STATE OF", "KINGDOM", "DEPARTMENT",
	"CLASS", "CITIZEN", "SEX", "DOB", "EXP",
}

// Regex builds a whole-text pattern. Panics on an invalid expression; the
// pattern tables are package data.
func Regex(expr string) Pattern {
	return Pattern{Matcher: RegexMatcher{re: regexp.MustCompile(expr)}}
}

// Line builds a per-line pattern that ignores document header lines.
func Line(expr string) Pattern {
	return Pattern{Matcher: LineMatcher{re: regexp.MustCompile(expr), skip: headerWords}}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// firstMatch runs patterns in order and returns the first hit whose first
// capture is non-empty.
func firstMatch(text string, patterns []Pattern) ([]string, Pattern, bool) {
	for _, p := range patterns {
		groups, ok := p.Match(text)
		if !ok || len(groups) < 2 || strings.TrimSpace(groups[1]) == "" {
			continue
		}
		return groups, p, true
	}
	return nil, Pattern{}, false
}
