// Package embed locates and parses image and PDF references in note text.
// Two syntaxes are recognized: wiki-style ![[link|alias]] and markdown-style
// ![alt](link). Matching is ordered and first-match-wins.
package embed

import (
	"errors"
	"path"
	"regexp"
	"strings"
)

// ErrNoEmbed is returned when no image or PDF reference can be located.
var ErrNoEmbed = errors.New("no image or PDF embed found")

// Kind distinguishes the two embed syntaxes.
type Kind int

const (
	KindWiki Kind = iota
	KindMarkdown
)

// assetExtensions are the only extensions the locator will return.
var assetExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"svg":  true,
	"pdf":  true,
}

var (
	wikiPattern     = regexp.MustCompile(`!\[\[([^\[\]|]+?)(?:\|([^\[\]]*))?\]\]`)
	markdownPattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^()]+)\)`)
	externalPattern = regexp.MustCompile(`(?i)^https?://`)
)

// Info is the parsed form of one embed, used for template placeholders.
type Info struct {
	Name      string // base name without extension
	Extension string // original case, no dot
	Path      string // link as written
	AltText   string
}

// ParseInfo splits a link plus alt text into its template-facing fields.
func ParseInfo(link, alt string) Info {
	base := path.Base(link)
	ext := strings.TrimPrefix(path.Ext(base), ".")
	return Info{
		Name:      strings.TrimSuffix(base, path.Ext(base)),
		Extension: ext,
		Path:      link,
		AltText:   alt,
	}
}

// IsAsset reports whether the link's extension is a supported image or PDF
// type. The check is case-insensitive.
func IsAsset(link string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(link), "."))
	return assetExtensions[ext]
}

// IsPDF reports whether the link points at a PDF.
func IsPDF(link string) bool {
	return strings.EqualFold(path.Ext(link), ".pdf")
}

// Located is one found embed reference.
type Located struct {
	Link     string
	Alt      string
	External bool
	Kind     Kind
	Raw      string // the literal embed markup that matched
}

// Match scans text for the first asset embed: wiki syntax first, then
// markdown syntax. Non-asset links are skipped, not returned.
func Match(text string) (*Located, bool) {
	for _, m := range wikiPattern.FindAllStringSubmatch(text, -1) {
		link := strings.TrimSpace(m[1])
		if !IsAsset(link) {
			continue
		}
		return &Located{
			Link: link,
			Alt:  strings.TrimSpace(m[2]),
			Kind: KindWiki,
			Raw:  m[0],
		}, true
	}

	for _, m := range markdownPattern.FindAllStringSubmatch(text, -1) {
		link := cleanMarkdownLink(m[2])
		if !IsAsset(link) {
			continue
		}
		return &Located{
			Link:     link,
			Alt:      strings.TrimSpace(m[1]),
			External: externalPattern.MatchString(link),
			Kind:     KindMarkdown,
			Raw:      m[0],
		}, true
	}

	return nil, false
}

// cleanMarkdownLink discards a trailing space-separated title and strips
// surrounding quotes from a markdown link target. A quoted target may itself
// contain spaces, so quotes are resolved before the title is cut.
func cleanMarkdownLink(raw string) string {
	link := strings.TrimSpace(raw)
	if len(link) > 1 && (link[0] == '"' || link[0] == '\'') {
		if i := strings.IndexByte(link[1:], link[0]); i >= 0 {
			return link[1 : i+1]
		}
	}
	if i := strings.IndexAny(link, " \t"); i >= 0 {
		link = link[:i]
	}
	return strings.Trim(link, `"'`)
}

// Editor is the host-side view of the note being edited.
type Editor interface {
	// Selection returns the currently selected text, empty when none.
	Selection() string
	// CursorLine returns the 0-based cursor line.
	CursorLine() int
	// Line returns the text of line n, empty when out of range.
	Line(n int) string
}

// Fallbacks supplies the two last-resort lookups used when neither the
// selection nor the lines above the cursor contain an embed.
type Fallbacks struct {
	// Index returns the file's cached embed markup entries, in document order.
	Index func() []string
	// Content returns the file's raw on-disk text.
	Content func() (string, error)
}

// Locate finds at most one embed near the cursor. Strategy order is strict:
// selection, then lines scanned upward from the cursor to line 0, then the
// embed index, then a raw content scan. The first hit wins.
func Locate(ed Editor, fb Fallbacks) (*Located, error) {
	if sel := ed.Selection(); sel != "" {
		if loc, ok := Match(sel); ok {
			return loc, nil
		}
	}

	for n := ed.CursorLine(); n >= 0; n-- {
		if loc, ok := Match(ed.Line(n)); ok {
			return loc, nil
		}
	}

	if fb.Index != nil {
		for _, raw := range fb.Index() {
			if loc, ok := Match(raw); ok {
				return loc, nil
			}
		}
	}

	if fb.Content != nil {
		if text, err := fb.Content(); err == nil {
			if loc, ok := Match(text); ok {
				return loc, nil
			}
		}
	}

	return nil, ErrNoEmbed
}

// FindAll returns the literal markup of every asset embed in text, in order
// of appearance. Used to build the vault embed index.
func FindAll(text string) []string {
	var out []string
	for _, m := range wikiPattern.FindAllStringSubmatch(text, -1) {
		if IsAsset(strings.TrimSpace(m[1])) {
			out = append(out, m[0])
		}
	}
	for _, m := range markdownPattern.FindAllStringSubmatch(text, -1) {
		if IsAsset(cleanMarkdownLink(m[2])) {
			out = append(out, m[0])
		}
	}
	return out
}
