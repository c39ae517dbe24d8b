package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"notelens/ocr"
	"notelens/tui"
	"notelens/vault"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// runNoteWorkflow extracts the first image or PDF embed in a chosen note and
// routes the text per the single-mode output settings.
func (a *app) runNoteWorkflow() {
	var notePath string
	picker := huh.NewFilePicker().
		Title("Select a note").
		Description("The nearest image or PDF embed will be extracted").
		Picking(true).
		CurrentDirectory(a.settings.VaultRoot).
		ShowHidden(false).
		ShowPermissions(false).
		ShowSize(true).
		Height(15).
		AllowedTypes([]string{".md"}).
		Value(&notePath)

	err := huh.NewForm(huh.NewGroup(picker)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err != huh.ErrUserAborted {
			a.log.NotifyError("Note selection failed", err)
		}
		return
	}

	rel, err := filepath.Rel(a.settings.VaultRoot, notePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		a.log.NotifyError("Note must live inside the vault", fmt.Errorf("%s", notePath))
		return
	}

	content, err := a.vault.ReadNote(rel)
	if err != nil {
		a.log.NotifyError("Failed to read note", err)
		return
	}

	pipe := ocr.NewPipeline(a.vault, a.provider, a.settings, a.log)
	ed := vault.NewNoteEditor(content, 0, "")

	var res *ocr.NoteResult
	var extractErr error
	err = spinner.New().
		Title(fmt.Sprintf("Extracting text with %s...", a.provider.Name())).
		Action(func() {
			res, extractErr = pipe.ExtractFromNote(context.Background(), rel, ed, nil)
		}).
		Run()
	if err != nil {
		a.log.NotifyError("Extraction failed", err)
		return
	}
	if extractErr != nil {
		a.log.NotifyError("Extraction failed", extractErr)
		return
	}

	if res.Inline {
		a.log.NotifySuccess("Text inserted into " + rel)
	} else {
		a.log.NotifySuccess("Text written to " + res.WrittenPath)
	}
	fmt.Println(tui.Card("Extracted text", preview(res.Text), 70))
}

// preview truncates long extraction output for the summary card.
func preview(text string) string {
	const limit = 400
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "\n..."
}
