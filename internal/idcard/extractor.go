// Package idcard turns recognized document text into a structured ID record:
// format detection, ordered pattern extraction, confidence aggregation,
// validation, date normalization and quality scoring.
package idcard

import (
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
)

const (
	DefaultConfidenceThreshold = 0.7

	// minFormatScore is the number of distinct keywords a format needs.
	minFormatScore = 3
)

type Extractor struct {
	formats   []*Format
	fallback  *Format
	threshold float64
}

type Option func(*Extractor)

// WithConfidenceThreshold sets the minimum overall confidence for a valid record.
func WithConfidenceThreshold(threshold float64) Option {
	return func(e *Extractor) {
		e.threshold = threshold
	}
}

// WithFormats replaces the built-in formats. Order is detection priority.
func WithFormats(formats ...*Format) Option {
	return func(e *Extractor) {
		e.formats = formats
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		formats:   DefaultFormats(),
		threshold: DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, f := range e.formats {
		if f.IsGeneric() {
			e.fallback = f
			break
		}
	}
	if e.fallback == nil {
		if len(e.formats) > 0 {
			e.fallback = e.formats[0]
		} else {
			e.fallback = GenericID
		}
	}
	return e
}

func (e *Extractor) Formats() []*Format {
	return e.formats
}

func (e *Extractor) Threshold() float64 {
	return e.threshold
}

// FormatByName looks a format up by name or country code, case-insensitively.
func (e *Extractor) FormatByName(name string) (*Format, bool) {
	for _, f := range e.formats {
		if strings.EqualFold(f.Name, name) || strings.EqualFold(f.CountryCode, name) {
			return f, true
		}
	}
	return nil, false
}

// DetectFormat returns the first format with at least three of its keywords
// in text, or the generic format.
func (e *Extractor) DetectFormat(text string) *Format {
	upper := strings.ToUpper(text)
	for _, f := range e.formats {
		if f.score(upper) >= minFormatScore {
			return f
		}
	}
	return e.fallback
}

// Extract builds a record from an OCR result. A nil format is detected from
// the text. For each field the format's patterns run first, then the generic
// ones; the first hit wins.
func (e *Extractor) Extract(res *ocr.Result, format *Format) *Record {
	if res == nil {
		res = &ocr.Result{}
	}
	if format == nil {
		format = e.DetectFormat(res.FullText)
	}

	text := strings.ToUpper(res.FullText)
	rec := &Record{
		Confidence: make(map[Field]float64),
		Format:     format.Name,
		Source:     res,
	}

	extractName(text, res, patternsFor(format, FieldName), rec)

	for _, field := range scalarFields {
		groups, _, ok := firstMatch(text, patternsFor(format, field))
		if !ok {
			continue
		}

		value := Normalize(groups[1])
		if field == FieldGender {
			value = normalizeGender(groups[1])
		}
		if value == "" {
			continue
		}

		rec.set(field, value)
		rec.Confidence[field] = fieldConfidence(res, groups[0])
	}

	rec.Overall = overallConfidence(rec.Confidence, res.Confidence)
	return rec
}

func extractName(text string, res *ocr.Result, patterns []Pattern, rec *Record) {
	groups, p, ok := firstMatch(text, patterns)
	if !ok {
		return
	}

	if len(groups) > 2 && strings.TrimSpace(groups[2]) != "" {
		first, last := Normalize(groups[1]), Normalize(groups[2])
		if p.Order == FamilyGiven {
			first, last = last, first
		}
		rec.FirstName = first
		rec.LastName = last
		rec.FullName = first + " " + last
	} else {
		rec.FullName = Normalize(groups[1])
		parts := strings.Fields(rec.FullName)
		switch {
		case len(parts) >= 2:
			rec.FirstName = parts[0]
			rec.LastName = strings.Join(parts[1:], " ")
		case len(parts) == 1:
			rec.FirstName = parts[0]
		}
	}

	conf := fieldConfidence(res, groups[0])
	if rec.FirstName != "" {
		rec.Confidence[FieldFirstName] = conf
	}
	if rec.LastName != "" {
		rec.Confidence[FieldLastName] = conf
	}
}

func patternsFor(f *Format, field Field) []Pattern {
	own := f.Patterns[field]
	out := make([]Pattern, 0, len(own)+len(genericPatterns[field]))
	out = append(out, own...)
	return append(out, genericPatterns[field]...)
}

// fieldConfidence averages the blocks containing the matched text, capped at
// the OCR confidence. With no containing block it is 80% of the OCR confidence.
func fieldConfidence(res *ocr.Result, matched string) float64 {
	needle := strings.ToUpper(matched)

	var sum float64
	var n int
	for _, b := range res.Blocks {
		if strings.Contains(strings.ToUpper(b.Text), needle) {
			sum += b.Confidence
			n++
		}
	}

	if n == 0 {
		return res.Confidence * 0.8
	}
	return math.Min(sum/float64(n), res.Confidence)
}

func overallConfidence(fields map[Field]float64, ocrConfidence float64) float64 {
	var sum float64
	var n int
	for _, c := range fields {
		if c > 0 {
			sum += c
			n++
		}
	}

	if n == 0 {
		return math.Max(0.3, ocrConfidence-0.2)
	}
	return sum / float64(n)
}

// Validation reports whether a record is complete and confident enough.
type Validation struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

func (e *Extractor) Validate(rec *Record) Validation {
	var problems []string

	if !rec.HasName() {
		problems = append(problems, "name not found")
	}
	if rec.DateOfBirth == "" {
		problems = append(problems, "date of birth not found")
	}
	if !rec.HasIdentifier() {
		problems = append(problems, "id or document number not found")
	}
	if rec.Overall < e.threshold {
		problems = append(problems, fmt.Sprintf("overall confidence %.2f below threshold %.2f", rec.Overall, e.threshold))
	}

	return Validation{
		Valid:    len(problems) == 0,
		Problems: problems,
	}
}
