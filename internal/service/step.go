package service

import (
	"errors"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// Step é uma etapa do processamento, devolvida para diagnóstico
type Step struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
	Detail     any    `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// tracer accumulates steps using the service clock
type tracer struct {
	now   func() time.Time
	steps []Step
	start time.Time
}

func newTracer(now func() time.Time) *tracer {
	return &tracer{now: now, steps: []Step{}, start: now()}
}

// begin returns a func that closes the step started now
func (t *tracer) begin(name string) func(detail any, err error) {
	started := t.now()
	return func(detail any, err error) {
		step := Step{
			Name:       name,
			Success:    err == nil,
			DurationMs: t.now().Sub(started).Milliseconds(),
			Detail:     detail,
		}
		if err != nil {
			step.Error = err.Error()
		}
		t.steps = append(t.steps, step)
	}
}

func (t *tracer) elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// toAppError keeps typed errors and wraps anything else in fallback
func toAppError(err error, fallback *domain.AppError) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return fallback.WithError(err)
}
