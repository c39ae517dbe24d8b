package vault

import "strings"

// NoteEditor is a cursor-and-selection view over one note's content. It
// satisfies embed.Editor.
type NoteEditor struct {
	lines     []string
	cursor    int
	selection string
}

// NewNoteEditor builds an editor view. cursorLine is clamped to the note;
// a negative cursorLine means "end of note". selection may be empty.
func NewNoteEditor(content string, cursorLine int, selection string) *NoteEditor {
	lines := strings.Split(content, "\n")
	if cursorLine < 0 || cursorLine >= len(lines) {
		cursorLine = len(lines) - 1
	}
	return &NoteEditor{lines: lines, cursor: cursorLine, selection: selection}
}

func (e *NoteEditor) Selection() string { return e.selection }

func (e *NoteEditor) CursorLine() int { return e.cursor }

func (e *NoteEditor) Line(n int) string {
	if n < 0 || n >= len(e.lines) {
		return ""
	}
	return e.lines[n]
}

func (e *NoteEditor) LineCount() int { return len(e.lines) }

// Content reassembles the note text.
func (e *NoteEditor) Content() string { return strings.Join(e.lines, "\n") }

// ReplaceSelection returns the note content with the selection replaced by
// repl. With no selection, repl is inserted on a new line below the cursor.
func (e *NoteEditor) ReplaceSelection(repl string) string {
	content := e.Content()
	if e.selection != "" {
		if i := strings.Index(content, e.selection); i >= 0 {
			return content[:i] + repl + content[i+len(e.selection):]
		}
	}

	out := make([]string, 0, len(e.lines)+1)
	out = append(out, e.lines[:e.cursor+1]...)
	out = append(out, repl)
	out = append(out, e.lines[e.cursor+1:]...)
	return strings.Join(out, "\n")
}
