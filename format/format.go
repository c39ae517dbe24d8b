// Package format renders extracted text into markdown output: template
// placeholder expansion, batch response splitting, and per-image versus
// combined note planning.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"notelens/payload"
)

// PageSeparator joins multi-page PDF text into one document.
const PageSeparator = "\n\n---\n\n"

// ImageContext carries the per-image fields available to templates under the
// image namespace.
type ImageContext struct {
	Name      string
	Path      string
	Extension string
	AltText   string
	Width     int
	Height    int
	Size      string
}

// NoteContext carries the source-note fields under the note namespace.
type NoteContext struct {
	Name string
	Path string
}

// PDFInfo carries PDF fields under the pdf namespace.
type PDFInfo struct {
	PageCount int
}

// Context is the fixed record templates resolve against. Built once per
// extraction; sub-records stay nil when they do not apply and their
// placeholders expand to the empty string.
type Context struct {
	Provider string
	Model    string
	Prompt   string
	Image    *ImageContext
	Images   []ImageContext
	Note     *NoteContext
	PDF      *PDFInfo
}

// ImageContextFor builds the template context slice for one prepared image.
func ImageContextFor(img payload.PreparedImage, alt string) ImageContext {
	name := img.Name
	ext := ""
	if i := strings.LastIndex(img.Name, "."); i >= 0 {
		name = img.Name[:i]
		ext = img.Name[i+1:]
	}
	return ImageContext{
		Name:      name,
		Path:      img.SourcePath,
		Extension: ext,
		AltText:   alt,
		Width:     img.Width,
		Height:    img.Height,
		Size:      payload.FormatSize(int64(img.ByteSize)),
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Date pattern components, longest first so YYYY wins over YY.
var dateReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

func looksLikeDate(token string) bool {
	for _, part := range []string{"YYYY", "YY", "MM", "DD", "HH", "mm", "ss"} {
		if strings.Contains(token, part) {
			return true
		}
	}
	return false
}

// Expand substitutes every {{token}} in the template. Namespaced tokens
// resolve against the context; date-pattern tokens resolve against now;
// anything else is left verbatim.
func Expand(tpl string, ctx Context, now time.Time) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		token := strings.TrimSpace(match[2 : len(match)-2])

		if ns, field, ok := strings.Cut(token, "."); ok {
			if v, resolved := ctx.lookup(ns, field); resolved {
				return v
			}
		}

		switch token {
		case "provider":
			return ctx.Provider
		case "model":
			return ctx.Model
		case "prompt":
			return ctx.Prompt
		}

		if looksLikeDate(token) {
			return now.Format(dateReplacer.Replace(token))
		}
		return match
	})
}

// lookup resolves a namespaced field. A missing sub-record resolves to "",
// not to the literal token: the namespace was recognized, the data is absent.
func (c Context) lookup(ns, field string) (string, bool) {
	switch ns {
	case "image":
		if c.Image == nil {
			return "", true
		}
		switch field {
		case "name":
			return c.Image.Name, true
		case "path":
			return c.Image.Path, true
		case "extension":
			return c.Image.Extension, true
		case "alt", "altText":
			return c.Image.AltText, true
		case "width":
			return fmt.Sprintf("%d", c.Image.Width), true
		case "height":
			return fmt.Sprintf("%d", c.Image.Height), true
		case "size":
			return c.Image.Size, true
		}
		return "", true
	case "note":
		if c.Note == nil {
			return "", true
		}
		switch field {
		case "name":
			return c.Note.Name, true
		case "path":
			return c.Note.Path, true
		}
		return "", true
	case "pdf":
		if c.PDF == nil {
			return "", true
		}
		if field == "pageCount" || field == "pages" {
			return fmt.Sprintf("%d", c.PDF.PageCount), true
		}
		return "", true
	}
	return "", false
}

// HasImagePlaceholder reports whether the template references the image
// namespace. This predicate decides per-image splitting.
func HasImagePlaceholder(tpl string) bool {
	return strings.Contains(tpl, "{{image.")
}

var batchBlockPattern = regexp.MustCompile(`(?s)--- BEGIN IMAGE: ---\s*(.*?)\s*--- END IMAGE ---`)

// SplitBatch parses the delimiter protocol out of a raw batch response.
// More than one block yields per-image items; zero or one block yields the
// whole trimmed response as a single item.
func SplitBatch(raw string) []string {
	matches := batchBlockPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) > 1 {
		blocks := make([]string, len(matches))
		for i, m := range matches {
			blocks[i] = m[1]
		}
		return blocks
	}
	if len(matches) == 1 {
		return []string{matches[0][1]}
	}
	return []string{strings.TrimSpace(raw)}
}

// CombinePages joins per-page text with the page separator.
func CombinePages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// Render wraps content with expanded header and footer templates. Empty
// templates contribute nothing, so bare content passes through untouched.
func Render(content string, ctx Context, header, footer string, now time.Time) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(Expand(header, ctx, now))
		b.WriteString("\n")
	}
	b.WriteString(content)
	if footer != "" {
		b.WriteString("\n")
		b.WriteString(Expand(footer, ctx, now))
	}
	return b.String()
}
