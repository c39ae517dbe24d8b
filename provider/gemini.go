package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"notelens/notice"
	"notelens/payload"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the generate-content REST endpoint directly.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *notice.Logger
}

// GeminiOption configures the client.
type GeminiOption func(*Gemini)

// WithGeminiBaseURL overrides the API base URL. Used by tests.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(g *Gemini) {
		g.baseURL = url
	}
}

// WithGeminiHTTPClient overrides the HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) {
		g.client = client
	}
}

// NewGemini builds a Gemini backend. The API key is mandatory.
func NewGemini(apiKey, model string, log *notice.Logger, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gemini) Name() string { return "Google Gemini" }

func (g *Gemini) ModelID() string { return g.model }

// Request/response shapes for generateContent. Field names follow the REST
// API's snake_case JSON.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ExtractText sends one image plus the prompt.
func (g *Gemini) ExtractText(ctx context.Context, image payload.PreparedImage, prompt string) (string, error) {
	return g.generate(ctx, []payload.PreparedImage{image}, prompt)
}

// ExtractBatch sends every image in a single request. Image parts precede the
// prompt text so the model sees them in source order.
func (g *Gemini) ExtractBatch(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	return g.generate(ctx, images, prompt)
}

func (g *Gemini) generate(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	parts := make([]geminiPart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: img.MimeType,
				Data:     img.Base64Data,
			},
		})
	}
	parts = append(parts, geminiPart{Text: prompt})

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	g.log.Debugf("gemini request: model=%s images=%d bytes=%d", g.model, len(images), len(body))

	resp, err := g.client.Do(req)
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
			Message:    fmt.Sprintf("gemini API returned status %d", resp.StatusCode),
		}
		var parsed geminiResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			apiErr.Details = parsed.Error.Message
		}
		return "", apiErr
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text string
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
