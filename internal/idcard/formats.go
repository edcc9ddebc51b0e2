package idcard

const CountryGeneric = "GENERIC"

const (
	numericDate = `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`
	textDate    = `(\d{1,2}[ \t]+(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[ \t]+\d{4})`
	isoDate     = `(\d{4}[-/]\d{1,2}[-/]\d{1,2})`
	nameChars   = `([A-Z][A-Z \t]*)`
	idChars     = `([A-Z0-9]+)`
	addrChars   = `([A-Z0-9][A-Z0-9 \t,]*)`
)

// Declaration order is detection priority.
var (
	USDriverLicense = &Format{
		Name:        "US Driver License",
		CountryCode: "US",
		Patterns: map[Field][]Pattern{
			FieldName: {
				Line(`^([A-Z]+),[ \t]*([A-Z][A-Z \t]*)$`).Ordered(FamilyGiven),
				Line(`^([A-Z]+)[ \t]+([A-Z][A-Z \t]*)$`),
				Regex(`\bLN[: \t]+` + nameChars),
				Regex(`\bFN[: \t]+` + nameChars),
			},
			FieldDateOfBirth: {
				Regex(`\bDOB[: \t]+` + numericDate),
				Regex(numericDate),
				Regex(`BIRTH[: \t]+` + numericDate),
			},
			FieldIDNumber: {
				Regex(`\bDL[: \t]+` + idChars),
				Regex(`\bLIC[: \t]+` + idChars),
				Regex(`\bID[: \t]+` + idChars),
			},
			FieldExpiryDate: {
				Regex(`\bEXP[: \t]+` + numericDate),
				Regex(`EXPIRES[: \t]+` + numericDate),
			},
			FieldGender: {
				Regex(`\bSEX[: \t]+([MF])\b`),
				Regex(`GENDER[: \t]+([MF])\b`),
			},
		},
		DateFormats: []string{"MM/DD/YYYY", "MM-DD-YYYY", "MM/DD/YY", "MM-DD-YY"},
		Keywords: map[Field][]string{
			FieldName:        {"NAME", "LN", "FN", "LAST NAME", "FIRST NAME"},
			FieldDateOfBirth: {"DOB", "DATE OF BIRTH", "BIRTH"},
			FieldIDNumber:    {"DL", "LIC", "LICENSE", "ID"},
			FieldExpiryDate:  {"EXP", "EXPIRES", "EXPIRY"},
			FieldGender:      {"SEX", "GENDER"},
		},
	}

	UKPassport = &Format{
		Name:        "UK Passport",
		CountryCode: "GB",
		Patterns: map[Field][]Pattern{
			FieldName: {
				Regex(`(?s)SURNAME[: \t]+([A-Z][A-Z \t]*).*?GIVEN[ \t]*NAMES?[: \t]+` + nameChars).Ordered(FamilyGiven),
				Line(`^([A-Z]+)[ \t]+([A-Z][A-Z \t]*)$`),
				Regex(`SURNAME[: \t]+` + nameChars),
				Regex(`GIVEN NAMES[: \t]+` + nameChars),
			},
			FieldDateOfBirth: {
				Regex(`DATE OF BIRTH[: \t]+` + textDate),
				Regex(textDate),
			},
			FieldDocumentNumber: {
				Regex(`PASSPORT NO\.?[: \t]+` + idChars),
				Regex(`\b([A-Z0-9]{9})\b`),
			},
			FieldNationality: {
				Regex(`NATIONALITY[: \t]+([A-Z]+)`),
				Regex(`(BRITISH)[ \t]+CITIZEN`),
			},
			FieldGender: {
				Regex(`\bSEX[: \t]+([MF])\b`),
			},
		},
		DateFormats: []string{"DD MMM YYYY", "DD/MM/YYYY", "DD-MM-YYYY"},
		Keywords: map[Field][]string{
			FieldName:           {"SURNAME", "GIVEN NAMES", "NAME"},
			FieldDateOfBirth:    {"DATE OF BIRTH", "DOB"},
			FieldDocumentNumber: {"PASSPORT NO", "DOCUMENT NO"},
			FieldNationality:    {"NATIONALITY"},
			FieldGender:         {"SEX"},
		},
	}

	GenericID = &Format{
		Name:        "Generic ID Card",
		CountryCode: CountryGeneric,
		Patterns: map[Field][]Pattern{
			FieldName: {
				Regex(`\bNAME[: \t]+` + nameChars),
				Line(`^([A-Z]+),[ \t]*([A-Z][A-Z \t]*)$`).Ordered(FamilyGiven),
			},
			FieldDateOfBirth: {
				Regex(`\bDOB[: \t]+` + numericDate),
				Regex(`BIRTH[: \t]+` + numericDate),
				Regex(numericDate),
			},
			FieldIDNumber: {
				Regex(`\bID[: \t]+` + idChars),
				Regex(`NUMBER[: \t]+` + idChars),
				Regex(`\b([A-Z]*[0-9][A-Z0-9]{5,})\b`),
			},
			FieldExpiryDate: {
				Regex(`EXPIRES[: \t]+` + numericDate),
				Regex(`EXPIRY[: \t]+` + numericDate),
			},
		},
		DateFormats: []string{"DD/MM/YYYY", "MM/DD/YYYY", "YYYY-MM-DD", "DD-MM-YYYY"},
		Keywords: map[Field][]string{
			FieldName:        {"NAME", "FULL NAME"},
			FieldDateOfBirth: {"DOB", "DATE OF BIRTH", "BIRTH"},
			FieldIDNumber:    {"ID", "NUMBER", "CARD NUMBER"},
			FieldExpiryDate:  {"EXPIRES", "EXPIRY", "VALID UNTIL"},
		},
	}
)

// DefaultFormats returns the built-in formats in detection order.
func DefaultFormats() []*Format {
	return []*Format{USDriverLicense, UKPassport, GenericID}
}

// genericPatterns run after a format's own patterns, for every format.
var genericPatterns = map[Field][]Pattern{
	FieldName: {
		Regex(`(?s)SURNAME[: \t]*([A-Z]+).*?GIVEN[ \t]*NAMES?[: \t]*` + nameChars).Ordered(FamilyGiven),
		Regex(`(?s)GIVEN[ \t]*NAMES?[: \t]*([A-Z][A-Z \t]*).*?SURNAME[: \t]*([A-Z]+)`),
		Regex(`(?s)\bLAST[ \t]*(?:NAME)?[: \t]+([A-Z]+).*?\bFIRST[ \t]*(?:NAME)?[: \t]+` + nameChars).Ordered(FamilyGiven),
		Regex(`(?s)\bFIRST[ \t]*(?:NAME)?[: \t]+([A-Z][A-Z \t]*).*?\bLAST[ \t]*(?:NAME)?[: \t]+([A-Z]+)`),
		Regex(`FULL[ \t]*NAME[: \t]+` + nameChars),
		Regex(`\bNAME[: \t]+` + nameChars),
	},
	FieldDateOfBirth: {
		Regex(`\bDOB[: \t]*` + numericDate),
		Regex(`DATE[ \t]*OF[ \t]*BIRTH[: \t]*` + numericDate),
		Regex(`BIRTH[: \t]*` + numericDate),
		Regex(`BORN[: \t]*` + numericDate),
		Regex(textDate),
		Regex(isoDate),
	},
	FieldIDNumber: {
		Regex(`\bID[ \t]*(?:NUMBER|NO)?\.?[: \t]+` + idChars),
		Regex(`IDENTIFICATION(?:[ \t]*(?:NUMBER|NO))?[: \t]+` + idChars),
		Regex(`LICEN[CS]E[ \t]*(?:NUMBER|NO)?\.?[: \t]+` + idChars),
		Regex(`\bDL[: \t]+` + idChars),
		Regex(`CARD[ \t]*NUMBER[: \t]+` + idChars),
	},
	FieldDocumentNumber: {
		Regex(`PASSPORT[ \t]*(?:NO|NUMBER)\.?[: \t]+` + idChars),
		Regex(`PASSPORT[: \t]+([A-Z0-9]*[0-9][A-Z0-9]*)`),
		Regex(`DOCUMENT[ \t]*(?:NO|NUMBER)?\.?[: \t]+` + idChars),
		Regex(`\bNUMBER[: \t]+` + idChars),
	},
	FieldExpiryDate: {
		Regex(`\bEXP[: \t]+` + numericDate),
		Regex(`EXPIRES[: \t]+` + numericDate),
		Regex(`EXPIRY[: \t]+` + numericDate),
		Regex(`VALID[ \t]*UNTIL[: \t]+` + numericDate),
		Regex(`DATE[ \t]*OF[ \t]*EXPIRY[: \t]+` + numericDate),
	},
	FieldIssueDate: {
		Regex(`ISSUED?[: \t]+` + numericDate),
		Regex(`\bISS[: \t]+` + numericDate),
		Regex(`DATE[ \t]*OF[ \t]*ISSUE[: \t]+` + numericDate),
	},
	FieldGender: {
		Regex(`\bSEX[: \t]+([MF])\b`),
		Regex(`GENDER[: \t]+([MF])\b`),
		Regex(`(?:GENDER|SEX)[: \t]+(MALE|FEMALE)`),
	},
	FieldNationality: {
		Regex(`NATIONALITY[: \t]+` + nameChars),
		Regex(`CITIZEN(?:SHIP)?[: \t]+` + nameChars),
		Regex(`COUNTRY[: \t]+` + nameChars),
	},
	FieldAddress: {
		Regex(`ADDRESS[: \t]+` + addrChars),
		Regex(`\bADDR[: \t]+` + addrChars),
		Regex(`RESIDENCE[: \t]+` + addrChars),
	},
}
