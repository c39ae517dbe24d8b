// Package vault is the filesystem-backed note store notelens reads assets
// from and writes extraction results into. It stands in for the host editor's
// file layer: binary reads, fuzzy short-link resolution, and note writes.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a link cannot be resolved to a vault file.
var ErrNotFound = errors.New("file not found in vault")

// Vault is rooted at a directory; all paths are relative to Root.
type Vault struct {
	Root string
}

// New opens a vault rooted at dir.
func New(dir string) *Vault {
	return &Vault{Root: dir}
}

func (v *Vault) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(v.Root, rel)
}

// ReadBinary returns the raw bytes of a vault file.
func (v *Vault) ReadBinary(rel string) ([]byte, error) {
	data, err := os.ReadFile(v.abs(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, err
	}
	return data, nil
}

// ReadNote returns a note's text content.
func (v *Vault) ReadNote(rel string) (string, error) {
	data, err := v.ReadBinary(rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResolveLink resolves a short link to a vault-relative path, the way editors
// resolve wiki links: exact paths relative to the linking note or the vault
// root first, then a fuzzy suffix match across the whole vault. The shortest
// matching path wins. fromPath may be empty.
func (v *Vault) ResolveLink(link, fromPath string) (string, error) {
	link = filepath.FromSlash(strings.TrimSpace(link))
	if link == "" {
		return "", fmt.Errorf("%w: empty link", ErrNotFound)
	}

	if fromPath != "" {
		sibling := filepath.Join(filepath.Dir(fromPath), link)
		if v.fileExists(sibling) {
			return filepath.ToSlash(sibling), nil
		}
	}
	if v.fileExists(link) {
		return filepath.ToSlash(link), nil
	}

	best := ""
	suffix := strings.ToLower(filepath.ToSlash(link))
	err := filepath.WalkDir(v.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(v.Root, p)
		if relErr != nil {
			return nil
		}
		relSlash := strings.ToLower(filepath.ToSlash(rel))
		if relSlash == suffix || strings.HasSuffix(relSlash, "/"+suffix) {
			if best == "" || len(rel) < len(best) {
				best = rel
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if best == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, link)
	}
	return filepath.ToSlash(best), nil
}

func (v *Vault) fileExists(rel string) bool {
	info, err := os.Stat(v.abs(rel))
	return err == nil && !info.IsDir()
}

// WriteNote writes content to a markdown note at folder/name. When the note
// exists: appendExisting appends with a blank-line separator, otherwise a
// uniquely suffixed sibling is created; an existing note is never truncated.
// Returns the vault-relative path actually written.
func (v *Vault) WriteNote(folder, name, content string, appendExisting bool) (string, error) {
	name = sanitizeNoteName(name)
	if !strings.HasSuffix(strings.ToLower(name), ".md") {
		name += ".md"
	}

	rel := name
	if folder != "" {
		rel = filepath.Join(filepath.FromSlash(folder), name)
	}
	abs := v.abs(rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create note folder: %w", err)
	}

	if _, err := os.Stat(abs); err == nil {
		if appendExisting {
			f, err := os.OpenFile(abs, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return "", fmt.Errorf("failed to open note for append: %w", err)
			}
			defer f.Close()
			if _, err := f.WriteString("\n\n" + content); err != nil {
				return "", fmt.Errorf("failed to append to note: %w", err)
			}
			return filepath.ToSlash(rel), nil
		}
		rel = v.uniqueName(rel)
		abs = v.abs(rel)
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// OverwriteNote replaces a note's content in place. Used for inline insertion
// back into the source note.
func (v *Vault) OverwriteNote(rel, content string) error {
	if err := os.WriteFile(v.abs(rel), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// uniqueName finds the first "name N.md" sibling that does not exist yet.
func (v *Vault) uniqueName(rel string) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d%s", stem, i, ext)
		if _, err := os.Stat(v.abs(candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}

// sanitizeNoteName strips characters that cannot appear in note filenames.
func sanitizeNoteName(name string) string {
	replacer := strings.NewReplacer(
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
	)
	name = replacer.Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	return name
}
