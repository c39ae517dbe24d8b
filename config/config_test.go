package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	s := Load()

	if s.Provider != KindGemini {
		t.Errorf("Provider = %q, want %q", s.Provider, KindGemini)
	}
	if s.RenderScale != DefaultRenderScale {
		t.Errorf("RenderScale = %v, want %v", s.RenderScale, DefaultRenderScale)
	}
	if s.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages = %d, want %d", s.MaxPages, DefaultMaxPages)
	}
	if !s.Batch.ToNewNote {
		t.Error("Batch.ToNewNote should default to true")
	}
	if s.Single.ToNewNote {
		t.Error("Single.ToNewNote should default to false")
	}
}

func TestLoad_ScaleClamping(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want float64
	}{
		{"below minimum", "0.5", MinRenderScale},
		{"above maximum", "10", MaxRenderScale},
		{"in range", "3.5", 3.5},
		{"garbage", "huge", DefaultRenderScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTELENS_PDF_SCALE", tt.env)
			if got := Load().RenderScale; got != tt.want {
				t.Errorf("RenderScale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_NegativeMaxPagesMeansUnlimited(t *testing.T) {
	t.Setenv("NOTELENS_PDF_MAX_PAGES", "-3")
	if got := Load().MaxPages; got != 0 {
		t.Errorf("MaxPages = %d, want 0", got)
	}
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	if got := Load().GeminiAPIKey; got != "google-key" {
		t.Errorf("GeminiAPIKey = %q, want google-key", got)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if got := Load().GeminiAPIKey; got != "gemini-key" {
		t.Errorf("GeminiAPIKey = %q, want gemini-key", got)
	}
}

func TestResolveProvider_TotalOverKinds(t *testing.T) {
	s := Settings{
		Provider:         "",
		OpenAIAPIKey:     "ok",
		OpenAIModel:      "gpt-4o",
		GeminiAPIKey:     "gk",
		GeminiModel:      "gemini-2.5-flash",
		OllamaEndpoint:   "http://localhost:11434",
		OllamaModel:      "llava",
		LMStudioEndpoint: "http://localhost:1234/v1",
		LMStudioModel:    "qwen2.5-vl-7b",
		CustomEndpoint:   "https://api.example.com/v1",
		CustomAPIKey:     "ck",
		CustomModel:      "my-model",
	}

	for _, kind := range Kinds {
		s.Provider = kind
		ps := s.ResolveProvider()
		if ps.Kind != kind {
			t.Errorf("ResolveProvider(%q).Kind = %q", kind, ps.Kind)
		}
		if ps.DisplayName == "" {
			t.Errorf("ResolveProvider(%q) has no display name", kind)
		}
		if ps.Model == "" {
			t.Errorf("ResolveProvider(%q) has no model", kind)
		}
	}
}

func TestResolveProvider_CustomNameFallback(t *testing.T) {
	s := Settings{Provider: KindCustom}
	if got := s.ResolveProvider().DisplayName; got != "Custom" {
		t.Errorf("DisplayName = %q, want Custom", got)
	}

	s.CustomName = "My Endpoint"
	if got := s.ResolveProvider().DisplayName; got != "My Endpoint" {
		t.Errorf("DisplayName = %q, want My Endpoint", got)
	}
}

func TestResolveProvider_UnknownKindPassesThrough(t *testing.T) {
	s := Settings{Provider: "frobnicator"}
	if got := s.ResolveProvider().Kind; got != "frobnicator" {
		t.Errorf("Kind = %q, want frobnicator", got)
	}
}
