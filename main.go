package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"notelens/config"
	"notelens/notice"
	"notelens/provider"
	"notelens/tui"
	"notelens/vault"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
)

// Build info - set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	shortVersionFlag := flag.Bool("v", false, "Print version information (short)")
	flag.Parse()

	if *versionFlag || *shortVersionFlag {
		fmt.Printf("notelens %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  go:     %s\n", runtime.Version())
		fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Load .env file if it exists (won't error if missing)
	_ = godotenv.Load()

	settings := config.Load()
	log := notice.New(settings.Debug)

	fmt.Println(tui.Header())

	app, err := newApp(settings, log)
	if err != nil {
		log.NotifyError("Setup failed", err)
		os.Exit(1)
	}

	for {
		if !app.runMenu() {
			break
		}
	}

	fmt.Println(tui.SubtitleStyle.Render("\nBye!"))
}

// app carries the session state shared by the workflows.
type app struct {
	settings config.Settings
	log      *notice.Logger
	vault    *vault.Vault
	provider provider.Provider
}

func newApp(settings config.Settings, log *notice.Logger) (*app, error) {
	if settings.VaultRoot == "" {
		root, err := askVaultRoot()
		if err != nil {
			return nil, err
		}
		settings.VaultRoot = root
	}
	if _, err := os.Stat(settings.VaultRoot); err != nil {
		return nil, fmt.Errorf("vault root %s: %w", settings.VaultRoot, err)
	}

	prov, err := provider.New(settings.ResolveProvider(), log)
	if err != nil {
		return nil, err
	}
	log.Debugf("provider: %s (%s)", prov.Name(), prov.ModelID())

	return &app{
		settings: settings,
		log:      log,
		vault:    vault.New(settings.VaultRoot),
		provider: prov,
	}, nil
}

func askVaultRoot() (string, error) {
	cwd, _ := os.Getwd()
	root := cwd

	input := huh.NewInput().
		Title("Vault folder").
		Description("Notes and extracted text live here (set NOTELENS_VAULT to skip this)").
		Value(&root)

	if err := huh.NewForm(huh.NewGroup(input)).WithTheme(huh.ThemeCatppuccin()).Run(); err != nil {
		return "", err
	}
	return root, nil
}

func (a *app) runMenu() bool {
	var choice string
	menu := huh.NewSelect[string]().
		Title(fmt.Sprintf("notelens - %s (%s)", a.provider.Name(), a.provider.ModelID())).
		Options(
			huh.NewOption("Extract text from a note embed", "note"),
			huh.NewOption("Extract text from image files", "images"),
			huh.NewOption("Extract text from a PDF", "pdf"),
			huh.NewOption("Exit", "exit"),
		).
		Value(&choice)

	err := huh.NewForm(huh.NewGroup(menu)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		return false
	}

	switch choice {
	case "note":
		a.runNoteWorkflow()
	case "images":
		a.runImagesWorkflow()
	case "pdf":
		a.runPDFWorkflow()
	default:
		return false
	}
	return true
}
