package domain

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNoFaceDetected,
			expected: "No face detected in the image",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrCaptureFailed.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("engine unavailable")
	newErr := ErrOCRFailed.WithError(underlying)

	if newErr.Code != ErrOCRFailed.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrOCRFailed.Code)
	}

	if newErr.StatusCode != ErrOCRFailed.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrOCRFailed.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if !errors.Is(newErr, ErrOCRFailed) {
		t.Errorf("errors.Is should match the predefined error by code")
	}
}

func TestAppError_WithMessage(t *testing.T) {
	err := ErrNoFaceDetected.WithMessage("No face detected in live image")

	if err.Message != "No face detected in live image" {
		t.Errorf("Message = %v", err.Message)
	}
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("errors.Is should match ErrNoFaceDetected")
	}
	if errors.Is(err, ErrMultipleFaces) {
		t.Errorf("errors.Is should not match a different code")
	}
	if ErrNoFaceDetected.Message != "No face detected in the image" {
		t.Errorf("WithMessage must not mutate the predefined error")
	}
}

func TestErrorsAs(t *testing.T) {
	err := ErrCameraNotFound.WithError(errors.New("no video input"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Errorf("errors.As should match AppError")
	}

	if appErr.Code != "CAMERA_NOT_FOUND" {
		t.Errorf("Code = %v, want CAMERA_NOT_FOUND", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrUnauthorized, "UNAUTHORIZED", 401},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrInvalidImage, "INVALID_IMAGE", 422},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrMultipleFaces, "MULTIPLE_FACES", 422},
		{ErrLowQualityImage, "LOW_QUALITY_IMAGE", 422},
		{ErrCameraPermissionDenied, "CAMERA_PERMISSION_DENIED", 403},
		{ErrCameraNotFound, "CAMERA_NOT_FOUND", 404},
		{ErrStreamStartFailed, "STREAM_START_FAILED", 500},
		{ErrSessionActive, "SESSION_ACTIVE", 409},
		{ErrCaptureFailed, "CAPTURE_FAILED", 422},
		{ErrOCRFailed, "OCR_FAILED", 502},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
