package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"notelens/ocr"
	"notelens/raster"
	"notelens/tui"

	"github.com/charmbracelet/huh"
)

// runPDFWorkflow rasterizes a PDF and extracts each page into one combined
// note.
func (a *app) runPDFWorkflow() {
	var pdfPath string
	startDir, _ := os.Getwd()

	picker := huh.NewFilePicker().
		Title("Select a PDF").
		Description("Pages are rendered and extracted in order").
		Picking(true).
		CurrentDirectory(startDir).
		ShowHidden(false).
		ShowPermissions(false).
		ShowSize(true).
		Height(15).
		AllowedTypes([]string{".pdf"}).
		Value(&pdfPath)

	err := huh.NewForm(huh.NewGroup(picker)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err != huh.ErrUserAborted {
			a.log.NotifyError("PDF selection failed", err)
		}
		return
	}

	pipe := ocr.NewPipeline(a.vault, a.provider, a.settings, a.log)

	var written string
	runErr := tui.RunProgress("Extracting "+filepath.Base(pdfPath), func(ctx context.Context, report func(float64, string)) error {
		var err error
		written, err = pipe.ExtractPDFFile(ctx, pdfPath, func(done, total int, detail string) {
			if total > 0 {
				report(float64(done)/float64(total), detail)
			}
		})
		return err
	})
	if runErr != nil {
		switch {
		case errors.Is(runErr, raster.ErrEncrypted):
			a.log.NotifyError("This PDF is password protected", runErr)
		case errors.Is(runErr, raster.ErrCorrupted):
			a.log.NotifyError("This PDF could not be parsed", runErr)
		case errors.Is(runErr, raster.ErrNotPDF):
			a.log.NotifyError("Not a PDF file", runErr)
		default:
			a.log.NotifyError("PDF extraction failed", runErr)
		}
		return
	}

	a.log.NotifySuccess("Text written to " + written)
}
