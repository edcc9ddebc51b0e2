package idcard

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize trims, collapses whitespace, then title-cases each word.
// Punctuation is kept: addresses and hyphenated names need it.
func Normalize(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.ToLower(s)

	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// normalizeGender maps M/MALE to Male and anything else to Female.
func normalizeGender(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "M" || code == "MALE" {
		return "Male"
	}
	return "Female"
}
