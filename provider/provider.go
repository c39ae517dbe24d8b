// Package provider implements the vision-model backends that perform text
// extraction. Two wire shapes are covered: Gemini generate-content and
// OpenAI-compatible chat completions (hosted, LM Studio, Ollama, custom
// endpoints).
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notelens/config"
	"notelens/notice"
	"notelens/payload"
)

var (
	// ErrUnknownKind means the configured provider identifier is not one of
	// the recognized kinds. Fatal before any network call.
	ErrUnknownKind = errors.New("unknown provider kind")

	// ErrMissingAPIKey means a hosted provider was selected without a key.
	ErrMissingAPIKey = errors.New("API key is required")
)

// DefaultTimeout for extraction requests.
const DefaultTimeout = 5 * time.Minute

// DefaultPrompt is the built-in single-image extraction prompt.
const DefaultPrompt = "Extract all text from this image. Preserve the structure and formatting as markdown. Return only the extracted text, with no commentary."

// Batch response markers. The batch prompt instructs the model to wrap each
// image's text in these exact delimiters; the formatter splits on them.
const (
	BatchMarkerBegin = "--- BEGIN IMAGE: ---"
	BatchMarkerEnd   = "--- END IMAGE ---"
)

// DefaultBatchPrompt is the built-in multi-image extraction prompt.
var DefaultBatchPrompt = "Extract all text from each of the provided images, in order. " +
	"For every image, wrap its extracted text in these exact markers:\n\n" +
	BatchMarkerBegin + "\n<extracted text>\n" + BatchMarkerEnd + "\n\n" +
	"Preserve structure and formatting as markdown. Return only the marked blocks, with no commentary."

// Provider is the capability every backend implements.
type Provider interface {
	// Name is the user-facing backend name.
	Name() string

	// ModelID is the configured model identifier.
	ModelID() string

	// ExtractText runs extraction over a single image.
	ExtractText(ctx context.Context, image payload.PreparedImage, prompt string) (string, error)
}

// BatchProvider is implemented by backends that accept several images in one
// call. Callers fall back to the first image when a provider lacks it.
type BatchProvider interface {
	ExtractBatch(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error)
}

// APIError is a non-2xx response from a backend.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Retryable reports whether the failure is worth retrying: transport errors,
// rate limits and server errors are; other client errors are not.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// New maps resolved provider settings to a constructed backend. The mapping
// is total over the recognized kinds; anything else is a configuration error.
func New(ps config.ProviderSettings, log *notice.Logger) (Provider, error) {
	switch ps.Kind {
	case config.KindGemini:
		return NewGemini(ps.APIKey, ps.Model, log)
	case config.KindOpenAI:
		return NewOpenAI(ps.APIKey, ps.Model)
	case config.KindOllama:
		return NewOllama(ps.Endpoint, ps.Model, log)
	case config.KindLMStudio:
		// Local servers tolerate an empty key.
		return NewCompat(ps.DisplayName, ps.Endpoint, "", ps.Model, log)
	case config.KindCustom:
		return NewCompat(ps.DisplayName, ps.Endpoint, ps.APIKey, ps.Model, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ps.Kind)
	}
}

// ExtractWithRetry runs a single-image extraction with backoff on retryable
// failures.
func ExtractWithRetry(ctx context.Context, p Provider, image payload.PreparedImage, prompt string, maxRetries int) (string, error) {
	return withRetry(ctx, maxRetries, func() (string, error) {
		return p.ExtractText(ctx, image, prompt)
	})
}

// ExtractBatchWithRetry runs a batch extraction under the same backoff
// policy. A transient failure retries the whole batch call.
func ExtractBatchWithRetry(ctx context.Context, bp BatchProvider, images []payload.PreparedImage, prompt string, maxRetries int) (string, error) {
	return withRetry(ctx, maxRetries, func() (string, error) {
		return bp.ExtractBatch(ctx, images, prompt)
	})
}

func withRetry(ctx context.Context, maxRetries int, call func() (string, error)) (string, error) {
	backoff := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := call()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !Retryable(err) {
			return "", err
		}

		if attempt < maxRetries {
			wait := backoff[len(backoff)-1]
			if attempt < len(backoff) {
				wait = backoff[attempt]
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return "", fmt.Errorf("extraction failed after %d retries: %w", maxRetries, lastErr)
}
