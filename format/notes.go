package format

import (
	"strings"
	"time"
)

// Destination is where formatted output goes and how it is decorated, read
// from configuration per mode (single or batch).
type Destination struct {
	ToNewNote      bool
	FolderTemplate string
	NameTemplate   string
	AppendIfExists bool
	Header         string
	Footer         string
	ItemHeader     string
	ItemFooter     string
}

// Note is one planned output document.
type Note struct {
	Folder  string
	Name    string
	Content string
	Append  bool
}

// BuildNotes plans output notes for a batch result. Output splits per image
// only when the name or folder template references the image namespace and
// more than one image was processed; otherwise everything lands in one
// combined note. When block and image counts disagree, the joined content is
// duplicated into every per-image note.
func BuildNotes(blocks []string, ctx Context, dst Destination, now time.Time) []Note {
	splitPerImage := len(ctx.Images) > 1 &&
		(HasImagePlaceholder(dst.NameTemplate) || HasImagePlaceholder(dst.FolderTemplate))

	if splitPerImage {
		return buildPerImage(blocks, ctx, dst, now)
	}
	return []Note{buildCombined(blocks, ctx, dst, now)}
}

func buildPerImage(blocks []string, ctx Context, dst Destination, now time.Time) []Note {
	// Mismatched counts get best-effort handling: every image receives the
	// full joined content.
	fallback := strings.Join(blocks, "\n\n")
	matched := len(blocks) == len(ctx.Images)

	notes := make([]Note, 0, len(ctx.Images))
	for i := range ctx.Images {
		img := ctx.Images[i]
		imgCtx := ctx
		imgCtx.Image = &img

		content := fallback
		if matched {
			content = blocks[i]
		}

		notes = append(notes, Note{
			Folder:  Expand(dst.FolderTemplate, imgCtx, now),
			Name:    Expand(dst.NameTemplate, imgCtx, now),
			Content: Render(content, imgCtx, dst.Header, dst.Footer, now),
			Append:  dst.AppendIfExists,
		})
	}
	return notes
}

func buildCombined(blocks []string, ctx Context, dst Destination, now time.Time) Note {
	var content string
	if len(blocks) > 1 && len(blocks) == len(ctx.Images) {
		// Item templates only apply when blocks map 1:1 onto images.
		parts := make([]string, len(blocks))
		for i, block := range blocks {
			img := ctx.Images[i]
			imgCtx := ctx
			imgCtx.Image = &img
			parts[i] = Render(block, imgCtx, dst.ItemHeader, dst.ItemFooter, now)
		}
		content = strings.Join(parts, "\n\n")
	} else {
		content = strings.Join(blocks, "\n\n")
	}

	return Note{
		Folder:  Expand(dst.FolderTemplate, ctx, now),
		Name:    Expand(dst.NameTemplate, ctx, now),
		Content: Render(content, ctx, dst.Header, dst.Footer, now),
		Append:  dst.AppendIfExists,
	}
}
