package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// ComparisonData is the face comparison outcome
type ComparisonData struct {
	Similarity float64 `json:"similarity" example:"0.93"`
	Confidence float64 `json:"confidence" example:"0.99"`
	IsMatch    bool    `json:"is_match" example:"true"`
	Threshold  float64 `json:"threshold" example:"0.8"`
}

// StepData is one traced pipeline step
type StepData struct {
	Name       string `json:"name" example:"compare_faces"`
	Success    bool   `json:"success" example:"true"`
	DurationMs int64  `json:"duration_ms" example:"120"`
	Error      string `json:"error,omitempty" example:""`
}

// VerifyResponse represents the response for identity verification
type VerifyResponse struct {
	ID           string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Success      bool           `json:"success" example:"true"`
	Comparison   ComparisonData `json:"comparison"`
	Error        *ErrorResponse `json:"error,omitempty"`
	Steps        []StepData     `json:"processing_steps"`
	ProcessingMs int64          `json:"processing_ms" example:"480"`
}

// QualityResponse represents the response for the image quality probe
type QualityResponse struct {
	IsGoodQuality bool     `json:"is_good_quality" example:"true"`
	Score         float64  `json:"score" example:"0.9"`
	Issues        []string `json:"issues" example:""`
}

// VerificationRecord is a stored verification
type VerificationRecord struct {
	ID           string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Success      bool    `json:"success" example:"true"`
	Similarity   float64 `json:"similarity" example:"0.93"`
	Confidence   float64 `json:"confidence" example:"0.99"`
	IsMatch      bool    `json:"is_match" example:"true"`
	Threshold    float64 `json:"threshold" example:"0.8"`
	ErrorCode    string  `json:"error_code,omitempty" example:""`
	ProcessingMs int64   `json:"processing_ms" example:"480"`
	CreatedAt    string  `json:"created_at" example:"2026-10-19T12:00:00Z"`
}

// DocumentData holds the fields pulled from an ID document
type DocumentData struct {
	FirstName         string  `json:"first_name,omitempty" example:"JOHN"`
	LastName          string  `json:"last_name,omitempty" example:"DOE"`
	FullName          string  `json:"full_name,omitempty" example:"JOHN DOE"`
	DateOfBirth       string  `json:"date_of_birth,omitempty" example:"1990-01-15"`
	IDNumber          string  `json:"id_number,omitempty" example:"D1234567"`
	DocumentNumber    string  `json:"document_number,omitempty" example:"123456789"`
	ExpiryDate        string  `json:"expiry_date,omitempty" example:"2030-01-15"`
	IssueDate         string  `json:"issue_date,omitempty" example:"2020-01-15"`
	Nationality       string  `json:"nationality,omitempty" example:"USA"`
	Gender            string  `json:"gender,omitempty" example:"M"`
	Address           string  `json:"address,omitempty" example:"123 MAIN ST"`
	OverallConfidence float64 `json:"overall_confidence" example:"0.91"`
	Format            string  `json:"format" example:"US Driver License"`
}

// DocumentQuality is the extraction quality score
type DocumentQuality struct {
	Score       int      `json:"score" example:"85"`
	Issues      []string `json:"issues" example:""`
	Suggestions []string `json:"suggestions" example:""`
}

// ExtractResponse represents the response for document extraction
type ExtractResponse struct {
	ID              string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Success         bool            `json:"success" example:"true"`
	Data            DocumentData    `json:"data"`
	Format          string          `json:"format" example:"US Driver License"`
	ExtractedFields []string        `json:"extracted_fields" example:"first_name,last_name"`
	Confidence      float64         `json:"confidence" example:"0.91"`
	Quality         DocumentQuality `json:"quality"`
	Age             int             `json:"age,omitempty" example:"36"`
	Degraded        bool            `json:"degraded" example:"false"`
	Errors          []string        `json:"errors" example:""`
	Warnings        []string        `json:"warnings" example:""`
	Steps           []StepData      `json:"processing_steps"`
	ProcessingMs    int64           `json:"processing_ms" example:"640"`
}

// FormatData describes a supported document format
type FormatData struct {
	Name        string   `json:"name" example:"UK Passport"`
	CountryCode string   `json:"country_code" example:"GB"`
	DateFormats []string `json:"date_formats" example:"DD MMM YYYY"`
	Keywords    []string `json:"keywords" example:"PASSPORT,SURNAME"`
}

// FormatsResponse lists supported document formats
type FormatsResponse struct {
	Formats []FormatData `json:"formats"`
}

// ExtractionRecord is a stored document extraction
type ExtractionRecord struct {
	ID           string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Format       string            `json:"format" example:"UK Passport"`
	Fields       map[string]string `json:"fields"`
	Confidence   float64           `json:"confidence" example:"0.9"`
	QualityScore int               `json:"quality_score" example:"85"`
	Degraded     bool              `json:"degraded" example:"false"`
	CreatedAt    string            `json:"created_at" example:"2026-10-19T12:00:00Z"`
}

var (
	errValidation   = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errImage        = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	errRateLimit    = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	apiKeySecurity  = []map[string][]string{{"ApiKeyAuth": {}}}
	multipartForm   = []mime.MIME{mime.MIME("multipart/form-data")}
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Veriface Identity Verification API",
		Version:     "v1.0.0",
		Description: "Matches a live photo against the face on an ID document and extracts the document's fields",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/verify
		endpoint.New(
			endpoint.POST,
			"/verify",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Verify a live photo against an ID document"),
			endpoint.WithDescription("Validates both images, detects exactly one face in each and compares them. Pipeline failures return 422 with success=false and the failing step."),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.FileParam("id_image", parameter.WithRequired(), parameter.WithDescription("Photo of the ID document")),
				parameter.FileParam("live_image", parameter.WithRequired(), parameter.WithDescription("Live photo of the holder")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errUnauthorized,
				response.New(VerifyResponse{Error: &ErrorResponse{Code: "NO_FACE_DETECTED", Message: "no face detected in id image"}}, "422", "Verification failed"),
				errRateLimit,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeySecurity),
		),

		// POST /v1/quality
		endpoint.New(
			endpoint.POST,
			"/quality",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Check face image quality"),
			endpoint.WithDescription("Scores an image for verification: face count, detection confidence, sharpness and head pose"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.FileParam("image", parameter.WithRequired(), parameter.WithDescription("Face photo")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(QualityResponse{}, "200", "Quality computed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errImage, errUnauthorized, errRateLimit, errInternal}),
			endpoint.WithSecurity(apiKeySecurity),
		),

		// GET /v1/verifications/:id
		endpoint.New(
			endpoint.GET,
			"/verifications/{id}",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Get a stored verification"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithRequired(), parameter.WithDescription("Verification UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerificationRecord{}, "200", "Verification found"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errUnauthorized,
				response.New(ErrorResponse{Code: "NOT_FOUND", Message: "Resource not found"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeySecurity),
		),

		// POST /v1/documents/extract
		endpoint.New(
			endpoint.POST,
			"/documents/extract",
			endpoint.WithTags("Documents"),
			endpoint.WithSummary("Extract fields from an ID document"),
			endpoint.WithDescription("Runs OCR, detects the document format (or uses the given one), extracts and normalizes fields and scores the result. When the OCR engine is unavailable the fallback engine is used and degraded=true."),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.FileParam("image", parameter.WithRequired(), parameter.WithDescription("Photo of the ID document")),
				parameter.StrParam("format", parameter.Form, parameter.WithDescription("Format name from /documents/formats; detected when omitted")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ExtractResponse{}, "200", "Extraction completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errImage,
				response.New(ErrorResponse{Code: "UNKNOWN_FORMAT", Message: "Unknown ID card format"}, "422", "Unknown format"),
				errUnauthorized,
				errRateLimit,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeySecurity),
		),

		// GET /v1/documents/formats
		endpoint.New(
			endpoint.GET,
			"/documents/formats",
			endpoint.WithTags("Documents"),
			endpoint.WithSummary("List supported document formats"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FormatsResponse{}, "200", "Formats listed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(apiKeySecurity),
		),

		// GET /v1/documents/extractions/:id
		endpoint.New(
			endpoint.GET,
			"/documents/extractions/{id}",
			endpoint.WithTags("Documents"),
			endpoint.WithSummary("Get a stored extraction"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithRequired(), parameter.WithDescription("Extraction UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ExtractionRecord{}, "200", "Extraction found"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errUnauthorized,
				response.New(ErrorResponse{Code: "NOT_FOUND", Message: "Resource not found"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeySecurity),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
