package format

import (
	"reflect"
	"testing"
	"time"

	"notelens/payload"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleContext() Context {
	return Context{
		Provider: "Google Gemini",
		Model:    "gemini-2.5-flash",
		Prompt:   "extract text",
		Image: &ImageContext{
			Name:      "diagram",
			Path:      "assets/diagram.png",
			Extension: "png",
			AltText:   "flow chart",
			Width:     800,
			Height:    600,
			Size:      "24.0 KB",
		},
		Note: &NoteContext{Name: "Meeting Notes", Path: "work/Meeting Notes.md"},
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{"image name", "OCR of {{image.name}}", "OCR of diagram"},
		{"image path and extension", "{{image.path}} ({{image.extension}})", "assets/diagram.png (png)"},
		{"image dimensions", "{{image.width}}x{{image.height}}", "800x600"},
		{"alt text", "> {{image.alt}}", "> flow chart"},
		{"note namespace", "From [[{{note.name}}]]", "From [[Meeting Notes]]"},
		{"bare tokens", "{{provider}} / {{model}}", "Google Gemini / gemini-2.5-flash"},
		{"prompt", "{{prompt}}", "extract text"},
		{"date pattern", "{{YYYY-MM-DD}}", "2026-03-14"},
		{"time pattern", "{{HH:mm:ss}}", "09:26:53"},
		{"two digit year", "{{YY-MM}}", "26-03"},
		{"mixed", "{{image.name}} {{YYYY-MM-DD}}", "diagram 2026-03-14"},
		{"unknown token stays literal", "{{wiki.title}}", "{{wiki.title}}"},
		{"unknown field in known namespace", "{{image.bogus}}", ""},
		{"no placeholders", "plain text", "plain text"},
	}

	ctx := sampleContext()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.tpl, ctx, testNow); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.tpl, got, tt.want)
			}
		})
	}
}

func TestExpand_MissingSubRecords(t *testing.T) {
	ctx := Context{Provider: "OpenAI", Model: "gpt-4o"}

	if got := Expand("{{image.name}}", ctx, testNow); got != "" {
		t.Errorf("missing image record should expand empty, got %q", got)
	}
	if got := Expand("{{pdf.pageCount}}", ctx, testNow); got != "" {
		t.Errorf("missing pdf record should expand empty, got %q", got)
	}

	ctx.PDF = &PDFInfo{PageCount: 12}
	if got := Expand("{{pdf.pageCount}} pages", ctx, testNow); got != "12 pages" {
		t.Errorf("got %q", got)
	}
}

func TestHasImagePlaceholder(t *testing.T) {
	tests := []struct {
		tpl  string
		want bool
	}{
		{"OCR {{image.name}}", true},
		{"{{image.path}}", true},
		{"{{note.name}} {{YYYY}}", false},
		{"no placeholders", false},
		{"{{images.name}}", false},
	}
	for _, tt := range tests {
		if got := HasImagePlaceholder(tt.tpl); got != tt.want {
			t.Errorf("HasImagePlaceholder(%q) = %v, want %v", tt.tpl, got, tt.want)
		}
	}
}

func TestSplitBatch(t *testing.T) {
	threeBlocks := "--- BEGIN IMAGE: ---\nfirst\n--- END IMAGE ---\n" +
		"--- BEGIN IMAGE: ---\nsecond\n--- END IMAGE ---\n" +
		"--- BEGIN IMAGE: ---\nthird\n--- END IMAGE ---"

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"three blocks", threeBlocks, []string{"first", "second", "third"}},
		{
			"single block yields its content",
			"--- BEGIN IMAGE: ---\nonly text\n--- END IMAGE ---",
			[]string{"only text"},
		},
		{"no markers yields trimmed raw", "  plain response\n", []string{"plain response"}},
		{
			"commentary around blocks is dropped",
			"Here you go:\n--- BEGIN IMAGE: ---\na\n--- END IMAGE ---\n--- BEGIN IMAGE: ---\nb\n--- END IMAGE ---\nDone!",
			[]string{"a", "b"},
		},
		{
			"multiline block content survives",
			"--- BEGIN IMAGE: ---\nline one\n\nline two\n--- END IMAGE ---\n--- BEGIN IMAGE: ---\nx\n--- END IMAGE ---",
			[]string{"line one\n\nline two", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitBatch(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitBatch() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ctx := sampleContext()

	t.Run("empty templates pass content through untouched", func(t *testing.T) {
		if got := Render("Hello world", ctx, "", "", testNow); got != "Hello world" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("header and footer expand around content", func(t *testing.T) {
		got := Render("body", ctx, "# {{image.name}}", "_{{provider}}_", testNow)
		want := "# diagram\nbody\n_Google Gemini_"
		if got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}
	})
}

func TestCombinePages(t *testing.T) {
	if got := CombinePages([]string{"one"}); got != "one" {
		t.Errorf("single page = %q", got)
	}
	if got := CombinePages([]string{"one", "two"}); got != "one\n\n---\n\ntwo" {
		t.Errorf("two pages = %q", got)
	}
}

func TestImageContextFor(t *testing.T) {
	img := payload.PreparedImage{
		Name:       "page_001.PNG",
		SourcePath: "scans/page_001.PNG",
		ByteSize:   2048,
		Width:      100,
		Height:     200,
	}
	got := ImageContextFor(img, "cover")
	if got.Name != "page_001" || got.Extension != "PNG" {
		t.Errorf("name/ext = %q/%q", got.Name, got.Extension)
	}
	if got.Path != "scans/page_001.PNG" || got.AltText != "cover" {
		t.Errorf("path/alt = %q/%q", got.Path, got.AltText)
	}
	if got.Size != "2.00 KB" {
		t.Errorf("size = %q", got.Size)
	}
}

func batchImages(n int) []ImageContext {
	out := make([]ImageContext, n)
	names := []string{"alpha", "beta", "gamma"}
	for i := range out {
		out[i] = ImageContext{Name: names[i], Extension: "png", Path: names[i] + ".png"}
	}
	return out
}

func TestBuildNotes_PerImageSplit(t *testing.T) {
	ctx := Context{Provider: "OpenAI", Model: "gpt-4o", Images: batchImages(3)}
	dst := Destination{
		ToNewNote:      true,
		FolderTemplate: "OCR",
		NameTemplate:   "{{image.name}}",
	}

	notes := BuildNotes([]string{"a text", "b text", "c text"}, ctx, dst, testNow)
	if len(notes) != 3 {
		t.Fatalf("notes = %d, want 3", len(notes))
	}

	wantNames := []string{"alpha", "beta", "gamma"}
	wantContent := []string{"a text", "b text", "c text"}
	for i, n := range notes {
		if n.Name != wantNames[i] {
			t.Errorf("note %d name = %q, want %q", i, n.Name, wantNames[i])
		}
		if n.Content != wantContent[i] {
			t.Errorf("note %d content = %q, want %q", i, n.Content, wantContent[i])
		}
		if n.Folder != "OCR" {
			t.Errorf("note %d folder = %q", i, n.Folder)
		}
	}
}

func TestBuildNotes_SplitWithMismatchedBlocks(t *testing.T) {
	ctx := Context{Images: batchImages(3)}
	dst := Destination{NameTemplate: "{{image.name}}"}

	// One combined block for three images: duplicate it into each note.
	notes := BuildNotes([]string{"everything at once"}, ctx, dst, testNow)
	if len(notes) != 3 {
		t.Fatalf("notes = %d, want 3", len(notes))
	}
	for i, n := range notes {
		if n.Content != "everything at once" {
			t.Errorf("note %d content = %q", i, n.Content)
		}
	}
}

func TestBuildNotes_Combined(t *testing.T) {
	ctx := Context{Images: batchImages(3)}
	dst := Destination{NameTemplate: "Batch {{YYYY-MM-DD}}"}

	notes := BuildNotes([]string{"a", "b", "c"}, ctx, dst, testNow)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	if notes[0].Name != "Batch 2026-03-14" {
		t.Errorf("name = %q", notes[0].Name)
	}
	if notes[0].Content != "a\n\nb\n\nc" {
		t.Errorf("content = %q", notes[0].Content)
	}
}

func TestBuildNotes_CombinedItemTemplates(t *testing.T) {
	ctx := Context{Images: batchImages(2)}
	dst := Destination{
		NameTemplate: "Batch",
		ItemHeader:   "## {{image.name}}",
	}

	notes := BuildNotes([]string{"text a", "text b"}, ctx, dst, testNow)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	want := "## alpha\ntext a\n\n## beta\ntext b"
	if notes[0].Content != want {
		t.Errorf("content = %q, want %q", notes[0].Content, want)
	}
}

func TestBuildNotes_SingleImageNeverSplits(t *testing.T) {
	ctx := Context{Images: batchImages(1)}
	dst := Destination{NameTemplate: "{{image.name}}"}

	notes := BuildNotes([]string{"only"}, ctx, dst, testNow)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
}
