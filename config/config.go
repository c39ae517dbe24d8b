// Package config holds the notelens settings surface and loads it from the
// environment. A .env file in the working directory is honored when present
// (loaded by main via godotenv).
package config

import (
	"os"
	"strconv"
	"strings"
)

// Provider kinds recognized by the settings surface.
const (
	KindOpenAI   = "openai"
	KindGemini   = "gemini"
	KindOllama   = "ollama"
	KindLMStudio = "lmstudio"
	KindCustom   = "custom"
)

// Kinds lists every recognized provider identifier.
var Kinds = []string{KindOpenAI, KindGemini, KindOllama, KindLMStudio, KindCustom}

// Default endpoints and models per provider kind.
const (
	DefaultOpenAIModel      = "gpt-4o"
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultOllamaEndpoint   = "http://localhost:11434"
	DefaultOllamaModel      = "llava"
	DefaultLMStudioEndpoint = "http://localhost:1234/v1"
	DefaultLMStudioModel    = "qwen2.5-vl-7b"
)

// PDF rendering bounds. RenderScale outside [MinRenderScale, MaxRenderScale]
// is clamped, not rejected.
const (
	MinRenderScale     = 1.0
	MaxRenderScale     = 4.0
	DefaultRenderScale = 2.0
	DefaultMaxPages    = 50
)

// OutputOptions controls where formatted extraction results go.
// Duplicated for single-image and batch mode.
type OutputOptions struct {
	// ToNewNote writes results to a new (or appended) note instead of
	// replacing the selection inline.
	ToNewNote bool

	// FolderPath is the vault folder for new notes; may contain placeholders.
	FolderPath string

	// NoteName is the note name template; may contain placeholders.
	NoteName string

	// AppendIfExists appends to an existing note instead of creating a
	// uniquely named sibling.
	AppendIfExists bool

	HeaderTemplate string
	FooterTemplate string
}

// Settings is the full persisted configuration. It is read-only for the
// duration of an operation.
type Settings struct {
	// Provider selects the backend kind: openai, gemini, ollama, lmstudio
	// or custom.
	Provider string

	OpenAIAPIKey string
	OpenAIModel  string

	GeminiAPIKey string
	GeminiModel  string

	OllamaEndpoint string
	OllamaModel    string

	LMStudioEndpoint string
	LMStudioModel    string

	CustomEndpoint string
	CustomAPIKey   string
	CustomModel    string
	CustomName     string

	// Prompt overrides. Blank falls back to the built-in defaults.
	Prompt      string
	BatchPrompt string

	Single OutputOptions
	Batch  OutputOptions

	// Per-item templates wrapped around each image block in batch output.
	BatchItemHeader string
	BatchItemFooter string

	// PDF controls.
	RenderScale float64
	MaxPages    int // 0 = unlimited

	// Debug enables verbose diagnostic logging.
	Debug bool

	// VaultRoot is the note vault directory.
	VaultRoot string
}

// ProviderSettings is the flat, resolved configuration for one backend.
type ProviderSettings struct {
	Kind        string
	APIKey      string
	Model       string
	Endpoint    string
	DisplayName string
}

// Load reads settings from the environment, applying defaults and clamping.
func Load() Settings {
	s := Settings{
		Provider: envStr("NOTELENS_PROVIDER", KindGemini),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envStr("OPENAI_MODEL", DefaultOpenAIModel),

		GeminiAPIKey: geminiKeyFromEnv(),
		GeminiModel:  envStr("GEMINI_MODEL", DefaultGeminiModel),

		OllamaEndpoint: envStr("OLLAMA_ENDPOINT", DefaultOllamaEndpoint),
		OllamaModel:    envStr("OLLAMA_MODEL", DefaultOllamaModel),

		LMStudioEndpoint: envStr("LMSTUDIO_ENDPOINT", DefaultLMStudioEndpoint),
		LMStudioModel:    envStr("LMSTUDIO_MODEL", DefaultLMStudioModel),

		CustomEndpoint: os.Getenv("NOTELENS_CUSTOM_ENDPOINT"),
		CustomAPIKey:   os.Getenv("NOTELENS_CUSTOM_API_KEY"),
		CustomModel:    os.Getenv("NOTELENS_CUSTOM_MODEL"),
		CustomName:     os.Getenv("NOTELENS_CUSTOM_NAME"),

		Prompt:      os.Getenv("NOTELENS_PROMPT"),
		BatchPrompt: os.Getenv("NOTELENS_BATCH_PROMPT"),

		Single: OutputOptions{
			ToNewNote:      envBool("NOTELENS_OUTPUT_NEW_NOTE", false),
			FolderPath:     os.Getenv("NOTELENS_OUTPUT_FOLDER"),
			NoteName:       envStr("NOTELENS_OUTPUT_NAME", "OCR {{YYYY-MM-DD HHmmss}}"),
			AppendIfExists: envBool("NOTELENS_OUTPUT_APPEND", false),
			HeaderTemplate: os.Getenv("NOTELENS_HEADER"),
			FooterTemplate: os.Getenv("NOTELENS_FOOTER"),
		},
		Batch: OutputOptions{
			ToNewNote:      envBool("NOTELENS_BATCH_OUTPUT_NEW_NOTE", true),
			FolderPath:     os.Getenv("NOTELENS_BATCH_OUTPUT_FOLDER"),
			NoteName:       envStr("NOTELENS_BATCH_OUTPUT_NAME", "OCR Batch {{YYYY-MM-DD HHmmss}}"),
			AppendIfExists: envBool("NOTELENS_BATCH_OUTPUT_APPEND", false),
			HeaderTemplate: os.Getenv("NOTELENS_BATCH_HEADER"),
			FooterTemplate: os.Getenv("NOTELENS_BATCH_FOOTER"),
		},
		BatchItemHeader: os.Getenv("NOTELENS_BATCH_ITEM_HEADER"),
		BatchItemFooter: os.Getenv("NOTELENS_BATCH_ITEM_FOOTER"),

		RenderScale: envFloat("NOTELENS_PDF_SCALE", DefaultRenderScale),
		MaxPages:    envInt("NOTELENS_PDF_MAX_PAGES", DefaultMaxPages),

		Debug: envBool("NOTELENS_DEBUG", false),

		VaultRoot: envStr("NOTELENS_VAULT", "."),
	}

	s.RenderScale = clampScale(s.RenderScale)
	if s.MaxPages < 0 {
		s.MaxPages = 0
	}

	return s
}

// ResolveProvider maps the selected kind to its flat backend settings.
// The mapping is total over the recognized kinds; unknown kinds pass through
// and are rejected later by provider construction.
func (s Settings) ResolveProvider() ProviderSettings {
	switch s.Provider {
	case KindOpenAI:
		return ProviderSettings{Kind: KindOpenAI, APIKey: s.OpenAIAPIKey, Model: s.OpenAIModel, DisplayName: "OpenAI"}
	case KindGemini:
		return ProviderSettings{Kind: KindGemini, APIKey: s.GeminiAPIKey, Model: s.GeminiModel, DisplayName: "Google Gemini"}
	case KindOllama:
		return ProviderSettings{Kind: KindOllama, Model: s.OllamaModel, Endpoint: s.OllamaEndpoint, DisplayName: "Ollama"}
	case KindLMStudio:
		return ProviderSettings{Kind: KindLMStudio, Model: s.LMStudioModel, Endpoint: s.LMStudioEndpoint, DisplayName: "LM Studio"}
	case KindCustom:
		name := s.CustomName
		if name == "" {
			name = "Custom"
		}
		return ProviderSettings{Kind: KindCustom, APIKey: s.CustomAPIKey, Model: s.CustomModel, Endpoint: s.CustomEndpoint, DisplayName: name}
	default:
		return ProviderSettings{Kind: s.Provider}
	}
}

func clampScale(v float64) float64 {
	if v < MinRenderScale {
		return MinRenderScale
	}
	if v > MaxRenderScale {
		return MaxRenderScale
	}
	return v
}

// geminiKeyFromEnv honors both GEMINI_API_KEY and the older GOOGLE_API_KEY.
func geminiKeyFromEnv() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
