package idcard

import (
	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
)

// Record is the structured result of one extraction. Dates keep the text
// printed on the document; use FormatDate for the canonical form.
type Record struct {
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	IDNumber       string `json:"id_number,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	IssueDate      string `json:"issue_date,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Address        string `json:"address,omitempty"`

	Confidence map[Field]float64 `json:"confidence"`
	Overall    float64           `json:"overall_confidence"`
	Format     string            `json:"format"`

	Source *ocr.Result `json:"-"`
}

func (r *Record) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldFullName:
		return r.FullName
	case FieldDateOfBirth:
		return r.DateOfBirth
	case FieldIDNumber:
		return r.IDNumber
	case FieldDocumentNumber:
		return r.DocumentNumber
	case FieldExpiryDate:
		return r.ExpiryDate
	case FieldIssueDate:
		return r.IssueDate
	case FieldNationality:
		return r.Nationality
	case FieldGender:
		return r.Gender
	case FieldAddress:
		return r.Address
	}
	return ""
}

func (r *Record) set(f Field, v string) {
	switch f {
	case FieldFirstName:
		r.FirstName = v
	case FieldLastName:
		r.LastName = v
	case FieldFullName:
		r.FullName = v
	case FieldDateOfBirth:
		r.DateOfBirth = v
	case FieldIDNumber:
		r.IDNumber = v
	case FieldDocumentNumber:
		r.DocumentNumber = v
	case FieldExpiryDate:
		r.ExpiryDate = v
	case FieldIssueDate:
		r.IssueDate = v
	case FieldNationality:
		r.Nationality = v
	case FieldGender:
		r.Gender = v
	case FieldAddress:
		r.Address = v
	}
}

// ExtractedFields lists the non-empty fields in display order.
func (r *Record) ExtractedFields() []Field {
	var out []Field
	for _, f := range recordFields {
		if r.Get(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// Values returns the non-empty fields keyed by name.
func (r *Record) Values() map[string]string {
	out := make(map[string]string)
	for _, f := range r.ExtractedFields() {
		out[string(f)] = r.Get(f)
	}
	return out
}

// HasName reports first and last name, or a full name.
func (r *Record) HasName() bool {
	return (r.FirstName != "" && r.LastName != "") || r.FullName != ""
}

func (r *Record) HasIdentifier() bool {
	return r.IDNumber != "" || r.DocumentNumber != ""
}
