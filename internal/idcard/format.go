package idcard

import (
	"sort"
	"strings"
)

// Format is a document template: field patterns tried before the generic
// fallbacks, date layouts the issuer prints and keywords used to detect it.
type Format struct {
	Name        string
	CountryCode string
	Patterns    map[Field][]Pattern
	DateFormats []string
	Keywords    map[Field][]string
}

// IsGeneric reports whether f is the catch-all format.
func (f *Format) IsGeneric() bool {
	return f.CountryCode == CountryGeneric
}

// keywordSet returns the union of the format's keywords, upper-cased and
// deduplicated.
func (f *Format) keywordSet() []string {
	seen := make(map[string]bool)
	var out []string
	for _, words := range f.Keywords {
		for _, w := range words {
			w = strings.ToUpper(w)
			if seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// score counts how many distinct keywords appear in text.
func (f *Format) score(upperText string) int {
	n := 0
	for _, w := range f.keywordSet() {
		if strings.Contains(upperText, w) {
			n++
		}
	}
	return n
}

// FormatInfo is the public description of a format.
type FormatInfo struct {
	Name        string   `json:"name"`
	CountryCode string   `json:"country_code"`
	DateFormats []string `json:"date_formats"`
	Keywords    []string `json:"keywords"`
}

func (f *Format) Info() FormatInfo {
	return FormatInfo{
		Name:        f.Name,
		CountryCode: f.CountryCode,
		DateFormats: f.DateFormats,
		Keywords:    f.keywordSet(),
	}
}
