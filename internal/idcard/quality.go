package idcard

import "time"

// Deductions from a perfect quality score of 100.
const (
	DeductionLowConfidence  = 20
	DeductionIncompleteName = 25
	DeductionMissingDOB     = 25
	DeductionMissingID      = 25
	DeductionInvalidDOB     = 15
	DeductionExpired        = 10

	lowConfidence = 0.8
)

// Quality rates an extracted record 0-100. Issues and Suggestions are
// parallel: Suggestions[i] addresses Issues[i].
type Quality struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

func (q *Quality) deduct(points int, issue, suggestion string) {
	q.Score -= points
	q.Issues = append(q.Issues, issue)
	q.Suggestions = append(q.Suggestions, suggestion)
}

func Score(rec *Record, now time.Time) Quality {
	q := Quality{Score: 100, Issues: []string{}, Suggestions: []string{}}

	if rec.Overall < lowConfidence {
		q.deduct(DeductionLowConfidence,
			"Low overall confidence in extracted data",
			"Try uploading a clearer image with better lighting")
	}

	if rec.FirstName == "" || rec.LastName == "" {
		q.deduct(DeductionIncompleteName,
			"Name information incomplete",
			"Ensure the name on the ID is clearly visible")
	}

	if rec.DateOfBirth == "" {
		q.deduct(DeductionMissingDOB,
			"Date of birth not detected",
			"Make sure the date of birth is clearly visible")
	}

	if !rec.HasIdentifier() {
		q.deduct(DeductionMissingID,
			"ID/Document number not detected",
			"Ensure the ID number is clearly visible and not obscured")
	}

	if rec.DateOfBirth != "" && FormatDate(rec.DateOfBirth) == Unparseable {
		q.deduct(DeductionInvalidDOB,
			"Invalid date of birth format",
			"Check if the date of birth is clearly readable")
	}

	if rec.ExpiryDate != "" && IsExpired(rec.ExpiryDate, now) {
		q.deduct(DeductionExpired,
			"Document appears to be expired",
			"Please use a valid, non-expired document")
	}

	if q.Score < 0 {
		q.Score = 0
	}
	return q
}
