package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DeepFace reports cosine distance (1 - cosine similarity) with this metric.
	distanceMetric = "cosine"
	maxBackoff     = 30 * time.Second
)

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Model      string
	Detector   string
	RetryCount int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5005",
		Timeout:    30 * time.Second,
		Model:      "Facenet512",
		Detector:   "retinaface",
		RetryCount: 3,
	}
}

// Client talks to a DeepFace REST server. Transport failures and 5xx answers
// are retried with exponential backoff; 4xx answers are returned at once.
type Client struct {
	httpClient *http.Client
	config     Config
	backoff    func(attempt int) time.Duration
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		backoff:    exponentialBackoff,
	}
}

// Represent detects faces in one image and returns their embeddings and areas.
func (c *Client) Represent(ctx context.Context, imageBase64 string) (*RepresentResponse, error) {
	return post[RepresentResponse](ctx, c, "/represent", RepresentRequest{
		Img:      imageBase64,
		Model:    c.config.Model,
		Detector: c.config.Detector,
	})
}

// Verify compares the most prominent face of each image server-side.
func (c *Client) Verify(ctx context.Context, img1Base64, img2Base64 string) (*VerifyResponse, error) {
	return post[VerifyResponse](ctx, c, "/verify", VerifyRequest{
		Img1:           img1Base64,
		Img2:           img2Base64,
		Model:          c.config.Model,
		Detector:       c.config.Detector,
		DistanceMetric: distanceMetric,
	})
}

// exponentialBackoff waits 1s, 2s, 4s... before retry n, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return min(time.Second<<min(attempt-1, 5), maxBackoff)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out T
	err = c.retry(ctx, func() error {
		return c.send(ctx, path, payload, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) retry(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		lastErr = call()
		switch {
		case lastErr == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case isClientError(lastErr):
			return lastErr
		}
	}

	return fmt.Errorf("%w: %w", ErrDeepFaceUnavailable, lastErr)
}

func (c *Client) send(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
