package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"notelens/notice"
	"notelens/payload"
)

// Ollama uses the native /api/chat endpoint, which takes raw base64 images
// alongside the message text. It does not implement BatchProvider: local
// vision models handle one image per request reliably, so batch callers fall
// back to the first image only.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
	log      *notice.Logger
}

// NewOllama builds an Ollama backend. No key is needed.
func NewOllama(endpoint, model string, log *notice.Logger) (*Ollama, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "llava"
	}
	return &Ollama{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: DefaultTimeout},
		log:      log,
	}, nil
}

func (o *Ollama) Name() string { return "Ollama" }

func (o *Ollama) ModelID() string { return o.model }

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// ExtractText sends the image as raw base64 in the images field.
func (o *Ollama) ExtractText(ctx context.Context, image payload.PreparedImage, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: prompt,
			Images:  []string{image.Base64Data},
		}},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	o.log.Debugf("ollama request: model=%s image=%s", o.model, image.Name)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ollama returned status %d", resp.StatusCode),
		}
		var parsed ollamaResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != "" {
			apiErr.Details = parsed.Error
		}
		return "", apiErr
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}
	return strings.TrimSpace(parsed.Message.Content), nil
}
