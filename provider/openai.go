package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"notelens/payload"
)

// OpenAI talks to the hosted OpenAI API through the official SDK.
type OpenAI struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures the client.
type OpenAIOption func(*[]option.RequestOption)

// WithOpenAIBaseURL overrides the API base URL. Used by tests.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithBaseURL(url))
	}
}

// NewOpenAI builds an OpenAI backend. The API key is mandatory.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = "gpt-4o"
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(&reqOpts)
	}

	client := openai.NewClient(reqOpts...)
	return &OpenAI{
		client: &client,
		model:  model,
	}, nil
}

func (o *OpenAI) Name() string { return "OpenAI" }

func (o *OpenAI) ModelID() string { return o.model }

// ExtractText sends one image plus the prompt.
func (o *OpenAI) ExtractText(ctx context.Context, image payload.PreparedImage, prompt string) (string, error) {
	return o.complete(ctx, []payload.PreparedImage{image}, prompt)
}

// ExtractBatch sends every image in one user message, images before the
// prompt text.
func (o *OpenAI) ExtractBatch(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	return o.complete(ctx, images, prompt)
}

func (o *OpenAI) complete(ctx context.Context, images []payload.PreparedImage, prompt string) (string, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL: img.DataURI(),
				},
			},
		})
	}
	parts = append(parts, openai.ChatCompletionContentPartUnionParam{
		OfText: &openai.ChatCompletionContentPartTextParam{
			Text: prompt,
		},
	})

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
