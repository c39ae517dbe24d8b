package payload

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"notelens/notice"
)

// tinyPNG is a valid 1x1 PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyPNG)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return data
}

func testLogger() *notice.Logger {
	return notice.NewWithOutput(io.Discard, io.Discard, true)
}

type mapReader map[string][]byte

func (m mapReader) ReadBinary(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.png", "image/png"},
		{"a.PNG", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.webp", "image/webp"},
		{"a.gif", "image/gif"},
		{"a.bmp", "image/bmp"},
		{"a.svg", "image/svg+xml"},
		{"a.pdf", "application/pdf"},
		{"a.xyz", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MimeType(tt.name); got != tt.want {
				t.Errorf("MimeType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestPrepare_Local(t *testing.T) {
	data := pngBytes(t)
	p := NewPreparer(mapReader{"attachments/pic.png": data}, nil, testLogger())

	img := p.Prepare(context.Background(), Reference{Source: "attachments/pic.png"})
	if img == nil {
		t.Fatal("Prepare() returned nil")
	}
	if img.Name != "pic" {
		t.Errorf("Name = %q, want pic", img.Name)
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q", img.MimeType)
	}
	if img.ByteSize != len(data) {
		t.Errorf("ByteSize = %d, want %d", img.ByteSize, len(data))
	}
	if img.Width != 1 || img.Height != 1 {
		t.Errorf("dimensions = %dx%d, want 1x1", img.Width, img.Height)
	}
	if img.Base64Data != tinyPNG {
		t.Error("Base64Data does not round-trip the source bytes")
	}
}

func TestPrepare_Idempotent(t *testing.T) {
	p := NewPreparer(mapReader{"pic.png": pngBytes(t)}, nil, testLogger())

	a := p.Prepare(context.Background(), Reference{Source: "pic.png"})
	b := p.Prepare(context.Background(), Reference{Source: "pic.png"})
	if a == nil || b == nil {
		t.Fatal("Prepare() returned nil")
	}
	if a.Base64Data != b.Base64Data || a.ByteSize != b.ByteSize {
		t.Error("Prepare() is not idempotent for an unchanged file")
	}
}

func TestPrepare_MissingLocalReturnsNil(t *testing.T) {
	p := NewPreparer(mapReader{}, nil, testLogger())
	if img := p.Prepare(context.Background(), Reference{Source: "gone.png"}); img != nil {
		t.Errorf("Prepare() = %+v, want nil", img)
	}
}

func TestPrepare_UndecodableLeavesDimensionsUnset(t *testing.T) {
	p := NewPreparer(mapReader{"pic.png": []byte("not a real png")}, nil, testLogger())
	img := p.Prepare(context.Background(), Reference{Source: "pic.png"})
	if img == nil {
		t.Fatal("Prepare() returned nil for undecodable buffer")
	}
	if img.Width != 0 || img.Height != 0 {
		t.Errorf("dimensions = %dx%d, want unset", img.Width, img.Height)
	}
}

func TestPrepare_External(t *testing.T) {
	data := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	p := NewPreparer(nil, NewHTTPFetcher(), testLogger())
	img := p.Prepare(context.Background(), Reference{Source: server.URL + "/pic.png", External: true})
	if img == nil {
		t.Fatal("Prepare() returned nil")
	}
	if img.ByteSize != len(data) {
		t.Errorf("ByteSize = %d, want %d", img.ByteSize, len(data))
	}
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			f := NewHTTPFetcher()
			if _, err := f.Fetch(context.Background(), server.URL); err == nil {
				t.Error("Fetch() should fail")
			}
		})
	}
}

func TestPrepareBytes(t *testing.T) {
	p := NewPreparer(nil, nil, testLogger())

	img := p.PrepareBytes("scans/page_1.jpg", []byte("jpeg bytes"))
	if img == nil {
		t.Fatal("PrepareBytes() returned nil")
	}
	if img.Name != "page_1" {
		t.Errorf("Name = %q, want page_1", img.Name)
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q", img.MimeType)
	}

	if img := p.PrepareBytes("empty.png", nil); img != nil {
		t.Error("PrepareBytes() should return nil for empty data")
	}
}

func TestDataURI(t *testing.T) {
	img := PreparedImage{MimeType: "image/png", Base64Data: "QUJD"}
	if got := img.DataURI(); got != "data:image/png;base64,QUJD" {
		t.Errorf("DataURI() = %q", got)
	}
}
