// Package ocr orchestrates the extraction pipeline: locate a source, prepare
// payloads, dispatch to a provider, and route the formatted result.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notelens/config"
	"notelens/embed"
	"notelens/format"
	"notelens/notice"
	"notelens/payload"
	"notelens/provider"
	"notelens/raster"
	"notelens/vault"
)

// maxRetries bounds provider retry attempts per item.
const maxRetries = 2

var (
	// ErrNothingPrepared means every image in a batch failed to prepare.
	ErrNothingPrepared = errors.New("no images could be prepared")

	// ErrExternalPDF rejects PDF embeds pointing outside the vault.
	ErrExternalPDF = errors.New("external PDF links are not supported")
)

// Progress reports long-operation checkpoints. Purely observational.
type Progress func(done, total int, detail string)

// Pipeline wires the extraction stages together. Settings are read-only for
// the duration of an operation.
type Pipeline struct {
	Vault    *vault.Vault
	Provider provider.Provider
	Settings config.Settings
	Log      *notice.Logger

	// Preparer loads vault-relative and external image references.
	Preparer *payload.Preparer

	// FilePreparer loads images from plain filesystem paths (batch flow).
	FilePreparer *payload.Preparer

	// Now is the template clock. Overridable in tests.
	Now func() time.Time
}

type fsReader struct{}

func (fsReader) ReadBinary(path string) ([]byte, error) { return os.ReadFile(path) }

// NewPipeline builds a pipeline with default preparers.
func NewPipeline(v *vault.Vault, prov provider.Provider, settings config.Settings, log *notice.Logger) *Pipeline {
	return &Pipeline{
		Vault:        v,
		Provider:     prov,
		Settings:     settings,
		Log:          log,
		Preparer:     payload.NewPreparer(v, payload.NewHTTPFetcher(), log),
		FilePreparer: payload.NewPreparer(fsReader{}, nil, log),
		Now:          time.Now,
	}
}

func (p *Pipeline) prompt() string {
	if p.Settings.Prompt != "" {
		return p.Settings.Prompt
	}
	return provider.DefaultPrompt
}

func (p *Pipeline) batchPrompt() string {
	if p.Settings.BatchPrompt != "" {
		return p.Settings.BatchPrompt
	}
	return provider.DefaultBatchPrompt
}

func (p *Pipeline) baseContext() format.Context {
	return format.Context{
		Provider: p.Provider.Name(),
		Model:    p.Provider.ModelID(),
		Prompt:   p.prompt(),
	}
}

// NoteResult describes where an embed extraction landed.
type NoteResult struct {
	// Inline is true when the text replaced the editor selection.
	Inline bool

	// WrittenPath is the vault-relative note path when a note was written.
	WrittenPath string

	Text string
}

// ExtractFromNote locates the embed nearest the cursor, extracts its text
// and routes the output per the single-mode destination settings. The source
// note is never modified on failure.
func (p *Pipeline) ExtractFromNote(ctx context.Context, notePath string, ed *vault.NoteEditor, report Progress) (*NoteResult, error) {
	idx := vault.NewEmbedIndex(p.Vault)
	loc, err := embed.Locate(ed, embed.Fallbacks{
		Index:   func() []string { return idx.Embeds(notePath) },
		Content: func() (string, error) { return p.Vault.ReadNote(notePath) },
	})
	if err != nil {
		return nil, err
	}

	info := embed.ParseInfo(loc.Link, loc.Alt)
	p.Log.Debugf("located embed: link=%s external=%v", loc.Link, loc.External)

	if embed.IsPDF(loc.Link) {
		if loc.External {
			return nil, ErrExternalPDF
		}
		return p.extractPDFEmbed(ctx, notePath, info, ed, report)
	}

	ref := payload.Reference{Source: loc.Link, External: loc.External, Name: filepath.Base(loc.Link)}
	if !loc.External {
		resolved, err := p.Vault.ResolveLink(loc.Link, notePath)
		if err != nil {
			return nil, err
		}
		ref.Source = resolved
		ref.Name = filepath.Base(resolved)
	}

	if report != nil {
		report(0, 1, ref.Name)
	}
	img := p.Preparer.Prepare(ctx, ref)
	if img == nil {
		return nil, fmt.Errorf("failed to prepare %s", ref.Name)
	}

	text, err := provider.ExtractWithRetry(ctx, p.Provider, *img, p.prompt(), maxRetries)
	if err != nil {
		return nil, err
	}
	if report != nil {
		report(1, 1, ref.Name)
	}

	imgCtx := format.ImageContextFor(*img, info.AltText)
	fctx := p.baseContext()
	fctx.Image = &imgCtx
	fctx.Note = noteContextFor(notePath)

	return p.routeSingle(notePath, ed, text, fctx)
}

// routeSingle applies the single-mode destination: a new or appended note, or
// an inline selection replacement in the source note.
func (p *Pipeline) routeSingle(notePath string, ed *vault.NoteEditor, text string, fctx format.Context) (*NoteResult, error) {
	opts := p.Settings.Single
	now := p.Now()
	rendered := format.Render(text, fctx, opts.HeaderTemplate, opts.FooterTemplate, now)

	if opts.ToNewNote {
		folder := format.Expand(opts.FolderPath, fctx, now)
		name := format.Expand(opts.NoteName, fctx, now)
		written, err := p.Vault.WriteNote(folder, name, rendered, opts.AppendIfExists)
		if err != nil {
			return nil, err
		}
		return &NoteResult{WrittenPath: written, Text: text}, nil
	}

	updated := ed.ReplaceSelection(rendered)
	if err := p.Vault.OverwriteNote(notePath, updated); err != nil {
		return nil, err
	}
	return &NoteResult{Inline: true, Text: text}, nil
}

// ExtractImages runs the batch flow over files, directories or glob
// patterns. Images that fail to prepare are skipped; output notes follow the
// batch-mode destination settings. Returns the written note paths.
func (p *Pipeline) ExtractImages(ctx context.Context, sources []string, report Progress) ([]string, error) {
	paths, err := payload.LoadSources(sources)
	if err != nil {
		return nil, err
	}

	prepared := make([]payload.PreparedImage, 0, len(paths))
	for i, path := range paths {
		if report != nil {
			report(i, len(paths), filepath.Base(path))
		}
		img := p.FilePreparer.Prepare(ctx, payload.Reference{Source: path, Name: filepath.Base(path)})
		if img == nil {
			continue
		}
		prepared = append(prepared, *img)
	}
	if len(prepared) == 0 {
		return nil, ErrNothingPrepared
	}
	if report != nil {
		report(len(paths), len(paths), "dispatching")
	}

	raw, err := p.dispatch(ctx, prepared)
	if err != nil {
		return nil, err
	}

	blocks := format.SplitBatch(raw)
	fctx := p.baseContext()
	fctx.Images = make([]format.ImageContext, len(prepared))
	for i, img := range prepared {
		fctx.Images[i] = format.ImageContextFor(img, "")
	}

	opts := p.Settings.Batch
	dst := format.Destination{
		ToNewNote:      true,
		FolderTemplate: opts.FolderPath,
		NameTemplate:   opts.NoteName,
		AppendIfExists: opts.AppendIfExists,
		Header:         opts.HeaderTemplate,
		Footer:         opts.FooterTemplate,
		ItemHeader:     p.Settings.BatchItemHeader,
		ItemFooter:     p.Settings.BatchItemFooter,
	}

	notes := format.BuildNotes(blocks, fctx, dst, p.Now())
	written := make([]string, 0, len(notes))
	for _, n := range notes {
		path, err := p.Vault.WriteNote(n.Folder, n.Name, n.Content, n.Append)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// dispatch sends prepared images to the provider. Batch-capable providers
// get every image in one call; others fall back to the first image only.
func (p *Pipeline) dispatch(ctx context.Context, prepared []payload.PreparedImage) (string, error) {
	if len(prepared) == 1 {
		return provider.ExtractWithRetry(ctx, p.Provider, prepared[0], p.prompt(), maxRetries)
	}
	if bp, ok := p.Provider.(provider.BatchProvider); ok {
		return provider.ExtractBatchWithRetry(ctx, bp, prepared, p.batchPrompt(), maxRetries)
	}
	p.Log.Warnf("%s cannot batch; processing first image only", p.Provider.Name())
	p.Log.NotifyWarn(fmt.Sprintf("%s does not support batches, using the first image", p.Provider.Name()))
	return provider.ExtractWithRetry(ctx, p.Provider, prepared[0], p.prompt(), maxRetries)
}

// ExtractPDFFile rasterizes a filesystem PDF and writes one note containing
// the combined page text. Returns the written note path.
func (p *Pipeline) ExtractPDFFile(ctx context.Context, path string, report Progress) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, total, err := p.pdfText(ctx, data, report)
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fctx := p.baseContext()
	fctx.PDF = &format.PDFInfo{PageCount: total}
	fctx.Image = &format.ImageContext{Name: stem, Path: path, Extension: "pdf"}

	return p.writePDFNote(stem, text, fctx)
}

// extractPDFEmbed handles a PDF embed located inside a note.
func (p *Pipeline) extractPDFEmbed(ctx context.Context, notePath string, info embed.Info, ed *vault.NoteEditor, report Progress) (*NoteResult, error) {
	resolved, err := p.Vault.ResolveLink(info.Path, notePath)
	if err != nil {
		return nil, err
	}
	data, err := p.Vault.ReadBinary(resolved)
	if err != nil {
		return nil, err
	}

	text, total, err := p.pdfText(ctx, data, report)
	if err != nil {
		return nil, err
	}

	fctx := p.baseContext()
	fctx.PDF = &format.PDFInfo{PageCount: total}
	fctx.Image = &format.ImageContext{Name: info.Name, Path: resolved, Extension: info.Extension, AltText: info.AltText}
	fctx.Note = noteContextFor(notePath)

	return p.routeSingle(notePath, ed, text, fctx)
}

// pdfText rasterizes the document and extracts each page sequentially. Pages
// that fail to render or extract are skipped; ordering follows page number.
func (p *Pipeline) pdfText(ctx context.Context, data []byte, report Progress) (string, int, error) {
	var rp raster.Progress
	if report != nil {
		rp = func(page, total int) { report(page, total*2, fmt.Sprintf("rendering page %d/%d", page, total)) }
	}

	res, err := raster.Rasterize(ctx, data, p.Settings.RenderScale, p.Settings.MaxPages, p.Log, rp)
	if err != nil {
		return "", 0, err
	}

	pages := make([]string, 0, len(res.Pages))
	for i, page := range res.Pages {
		text, err := provider.ExtractWithRetry(ctx, p.Provider, pagePayload(page), p.prompt(), maxRetries)
		if err != nil {
			p.Log.Warnf("page %d extraction failed, skipping: %v", page.PageNumber, err)
			continue
		}
		pages = append(pages, text)
		if report != nil {
			report(len(res.Pages)+i+1, len(res.Pages)*2, fmt.Sprintf("extracted page %d/%d", page.PageNumber, len(res.Pages)))
		}
	}
	if len(pages) == 0 {
		return "", 0, fmt.Errorf("no pages could be extracted")
	}
	return format.CombinePages(pages), res.TotalPages, nil
}

// writePDFNote routes combined PDF text into a new note per the single-mode
// destination, defaulting the name to the document stem.
func (p *Pipeline) writePDFNote(stem, text string, fctx format.Context) (string, error) {
	opts := p.Settings.Single
	now := p.Now()
	rendered := format.Render(text, fctx, opts.HeaderTemplate, opts.FooterTemplate, now)

	folder := format.Expand(opts.FolderPath, fctx, now)
	name := format.Expand(opts.NoteName, fctx, now)
	if strings.TrimSpace(name) == "" {
		name = stem
	}
	return p.Vault.WriteNote(folder, name, rendered, opts.AppendIfExists)
}

// pagePayload wraps a rendered page as a provider payload.
func pagePayload(page raster.PageImage) payload.PreparedImage {
	return payload.PreparedImage{
		Name:       fmt.Sprintf("page-%d.png", page.PageNumber),
		Base64Data: page.Base64Data,
		MimeType:   "image/png",
		ByteSize:   page.ByteSize,
		Width:      page.Width,
		Height:     page.Height,
	}
}

func noteContextFor(notePath string) *format.NoteContext {
	base := filepath.Base(notePath)
	return &format.NoteContext{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: notePath,
	}
}
