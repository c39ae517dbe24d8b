package main

import (
	"context"
	"fmt"
	"strings"

	"notelens/ocr"
	"notelens/tui"

	"github.com/charmbracelet/huh"
)

// runImagesWorkflow extracts text from image files, a folder or a glob
// pattern, writing notes per the batch-mode output settings.
func (a *app) runImagesWorkflow() {
	var source string
	input := huh.NewInput().
		Title("Images to extract").
		Description("A file, a folder, or a glob pattern like scans/page_*.png").
		Placeholder("path/to/images").
		Value(&source)

	err := huh.NewForm(huh.NewGroup(input)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err != huh.ErrUserAborted {
			a.log.NotifyError("Input failed", err)
		}
		return
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return
	}

	pipe := ocr.NewPipeline(a.vault, a.provider, a.settings, a.log)

	var written []string
	runErr := tui.RunProgress("Extracting images", func(ctx context.Context, report func(float64, string)) error {
		var err error
		written, err = pipe.ExtractImages(ctx, []string{source}, func(done, total int, detail string) {
			if total > 0 {
				report(float64(done)/float64(total), detail)
			}
		})
		return err
	})
	if runErr != nil {
		a.log.NotifyError("Batch extraction failed", runErr)
		return
	}

	a.log.NotifySuccess(fmt.Sprintf("Wrote %d note(s)", len(written)))
	for _, path := range written {
		fmt.Println(tui.MutedStyle.Render("  " + path))
	}
}
