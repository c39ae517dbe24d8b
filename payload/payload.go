// Package payload turns located image references into provider-ready
// payloads: raw bytes, mime type, pixel dimensions and base64 data.
package payload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"notelens/notice"

	// Decoders registered for the dimension probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Size and count ceilings enforced before dispatching to a provider.
const (
	// MaxFileSize is the per-image byte ceiling (20MB).
	MaxFileSize = 20 * 1024 * 1024

	// MaxBatchImages is the per-operation image ceiling.
	MaxBatchImages = 100
)

// mimeByExt is the fixed extension-to-mime lookup.
var mimeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
}

// MimeType derives a mime type purely from the filename extension.
// Unknown extensions map to a generic octet stream.
func MimeType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if mt, ok := mimeByExt[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Reference points at one image source, local or external.
type Reference struct {
	// Source is a vault-relative path, or a URL when External.
	Source   string
	External bool
	// Name overrides the display name derived from Source.
	Name string
}

// PreparedImage is the normalized payload handed to a provider. Base64Data
// never carries a data-URL prefix; ByteSize equals the decoded byte length.
type PreparedImage struct {
	Name       string
	Base64Data string
	MimeType   string
	ByteSize   int
	Width      int // 0 when unknown
	Height     int // 0 when unknown
	SourcePath string
}

// DataURI returns the payload as an inline data URI.
func (p PreparedImage) DataURI() string {
	return "data:" + p.MimeType + ";base64," + p.Base64Data
}

// Fetcher retrieves external image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Reader retrieves local image bytes; *vault.Vault satisfies it.
type Reader interface {
	ReadBinary(path string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP GET.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds a fetcher with a bounded timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 2 * time.Minute}}
}

// NewHTTPFetcherWithClient is NewHTTPFetcher with a custom client, for tests.
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch downloads url. Any status other than 200, or an empty body, is a
// failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body from %s", url)
	}
	return data, nil
}

// Preparer builds PreparedImages from references.
type Preparer struct {
	read  Reader
	fetch Fetcher
	log   *notice.Logger
}

// NewPreparer wires a preparer to its collaborators.
func NewPreparer(read Reader, fetch Fetcher, log *notice.Logger) *Preparer {
	return &Preparer{read: read, fetch: fetch, log: log}
}

// Prepare resolves a reference to a payload. It never returns an error:
// failures are logged and nil is returned so batch callers can skip the item.
func (p *Preparer) Prepare(ctx context.Context, ref Reference) *PreparedImage {
	var data []byte
	var err error
	if ref.External {
		data, err = p.fetch.Fetch(ctx, ref.Source)
	} else {
		data, err = p.read.ReadBinary(ref.Source)
	}
	if err != nil {
		p.log.Warnf("skipping %s: %v", ref.Source, err)
		return nil
	}

	name := ref.Name
	if name == "" {
		base := path.Base(ref.Source)
		name = strings.TrimSuffix(base, path.Ext(base))
	}
	return p.build(name, ref.Source, data)
}

// PrepareBytes builds a payload from raw bytes plus a filename, as returned
// by the file picker collaborator.
func (p *Preparer) PrepareBytes(name string, data []byte) *PreparedImage {
	if len(data) == 0 {
		p.log.Warnf("skipping %s: empty file", name)
		return nil
	}
	display := strings.TrimSuffix(path.Base(name), path.Ext(name))
	return p.build(display, name, data)
}

func (p *Preparer) build(name, source string, data []byte) *PreparedImage {
	if len(data) > MaxFileSize {
		p.log.Warnf("skipping %s: %s exceeds the %s limit", source, FormatSize(int64(len(data))), FormatSize(MaxFileSize))
		return nil
	}

	img := &PreparedImage{
		Name:       name,
		Base64Data: base64.StdEncoding.EncodeToString(data),
		MimeType:   MimeType(source),
		ByteSize:   len(data),
		SourcePath: source,
	}

	// Dimensions are best-effort; an undecodable buffer is not an error.
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	} else {
		p.log.Debugf("no dimensions for %s: %v", source, err)
	}

	return img
}
