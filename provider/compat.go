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

// Compat talks to any OpenAI-compatible chat-completions server: LM Studio,
// vLLM, custom gateways. The key is optional; when set it is sent as a
// bearer token.
type Compat struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      *notice.Logger
}

// NewCompat builds an OpenAI-compatible backend. The endpoint should include
// the API path prefix, e.g. http://localhost:1234/v1.
func NewCompat(name, endpoint, apiKey, model string, log *notice.Logger) (*Compat, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint is required", name)
	}
	if name == "" {
		name = "Custom"
	}
	return &Compat{
		name:     name,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: DefaultTimeout},
		log:      log,
	}, nil
}

func (c *Compat) Name() string { return c.name }

func (c *Compat) ModelID() string { return c.model }

// Chat-completions wire shapes, trimmed to the fields we use.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ExtractText sends one image plus the prompt.
func (c *Compat) ExtractText(ctx context.Context, image payload.PreparedImage, prompt string) (string, error) {
	return c.complete(ctx, []payload.PreparedImage{image}, prompt)
}

// ExtractBatch sends every image in one user message.
func (c *Compat) ExtractBatch(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	return c.complete(ctx, images, prompt)
}

func (c *Compat) complete(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	content := make([]chatContent, 0, len(images)+1)
	for _, img := range images {
		content = append(content, chatContent{
			Type:     "image_url",
			ImageURL: &chatImageURL{URL: img.DataURI()},
		})
	}
	content = append(content, chatContent{Type: "text", Text: prompt})

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: content}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.endpoint + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.Debugf("%s request: model=%s images=%d", c.name, c.model, len(images))

	resp, err := c.client.Do(req)
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
			Message:    fmt.Sprintf("%s returned status %d", c.name, resp.StatusCode),
		}
		var parsed chatResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			apiErr.Details = parsed.Error.Message
		}
		return "", apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
