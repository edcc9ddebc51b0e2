package idcard

// Field identifies a value extracted from an ID document.
type Field string

const (
	FieldFirstName      Field = "first_name"
	FieldLastName       Field = "last_name"
	FieldFullName       Field = "full_name"
	FieldDateOfBirth    Field = "date_of_birth"
	FieldIDNumber       Field = "id_number"
	FieldDocumentNumber Field = "document_number"
	FieldExpiryDate     Field = "expiry_date"
	FieldIssueDate      Field = "issue_date"
	FieldNationality    Field = "nationality"
	FieldGender         Field = "gender"
	FieldAddress        Field = "address"

	// FieldName keys name patterns and keywords; a match fills
	// first, last and full name.
	FieldName Field = "name"
)

// scalarFields are extracted in this order after the name.
var scalarFields = []Field{
	FieldDateOfBirth,
	FieldIDNumber,
	FieldDocumentNumber,
	FieldExpiryDate,
	FieldIssueDate,
	FieldGender,
	FieldNationality,
	FieldAddress,
}

// recordFields lists every Record field in display order.
var recordFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldFullName,
	FieldDateOfBirth,
	FieldIDNumber,
	FieldDocumentNumber,
	FieldExpiryDate,
	FieldIssueDate,
	FieldNationality,
	FieldGender,
	FieldAddress,
}
