package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/datastore"
	"github.com/absmartly/domeditor/internal/dom"
	"github.com/absmartly/domeditor/internal/editor"
	"github.com/absmartly/domeditor/internal/logger"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/absmartly/domeditor/internal/preview"
	"github.com/absmartly/domeditor/internal/sanitizer"
	"github.com/absmartly/domeditor/internal/selector"
	"github.com/rs/zerolog"
)

func main() {
	fmt.Println("domeditor starting...")

	// Flags
	htmlFile := flag.String("html", "", "Path to the HTML file to edit (apply mode).")
	htmlFileAlias := flag.String("f", "", "Alias for --html")

	changesFile := flag.String("changes", "", "Path to a JSON file holding the change list (apply and preview modes).")
	changesFileAlias := flag.String("c", "", "Alias for --changes")

	outFile := flag.String("out", "", "Path to write the resulting HTML. Defaults to stdout.")
	outFileAlias := flag.String("o", "", "Alias for --out")

	pageURL := flag.String("url", "", "URL to preview the changeset against (preview mode).")
	pageURLAlias := flag.String("u", "", "Alias for --url")

	experimentID := flag.String("experiment", "", "Experiment id to stamp on touched elements and key saved changesets.")
	experimentIDAlias := flag.String("e", "", "Alias for --experiment")

	globalConfigFile := flag.String("globalconfig", "", "Path to the global YAML/JSON configuration file.")
	globalConfigFileAlias := flag.String("gc", "", "Alias for --globalconfig")

	modeFlag := flag.String("mode", "", "Mode to run: apply, preview or show (required)")
	modeFlagAlias := flag.String("m", "", "Alias for --mode")
	flag.Parse()

	// Consolidate alias flags
	if *htmlFile == "" && *htmlFileAlias != "" {
		*htmlFile = *htmlFileAlias
	}
	if *changesFile == "" && *changesFileAlias != "" {
		*changesFile = *changesFileAlias
	}
	if *outFile == "" && *outFileAlias != "" {
		*outFile = *outFileAlias
	}
	if *pageURL == "" && *pageURLAlias != "" {
		*pageURL = *pageURLAlias
	}
	if *experimentID == "" && *experimentIDAlias != "" {
		*experimentID = *experimentIDAlias
	}
	if *globalConfigFile == "" && *globalConfigFileAlias != "" {
		*globalConfigFile = *globalConfigFileAlias
	}
	if *modeFlag == "" && *modeFlagAlias != "" {
		*modeFlag = *modeFlagAlias
	}

	if *modeFlag == "" {
		log.Fatalln("[FATAL] --mode argument is required (apply, preview or show)")
	}

	gCfg, err := config.LoadGlobalConfig(*globalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load global config using path '%s': %v", *globalConfigFile, err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	if *experimentID != "" {
		gCfg.EditorConfig.ExperimentID = *experimentID
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, shutting down...")
		cancel()
	}()

	switch *modeFlag {
	case "apply":
		runApply(ctx, gCfg, *htmlFile, *changesFile, *outFile, zLogger)
	case "preview":
		runPreview(ctx, gCfg, *pageURL, *changesFile, *outFile, zLogger)
	case "show":
		runShow(ctx, gCfg, zLogger)
	default:
		zLogger.Fatal().Str("mode", *modeFlag).Msg("Unknown mode, expected apply, preview or show")
	}
}

// runApply replays a change list against an HTML file through a full editing
// session, writes the resulting document, and saves the squashed changeset
// when an experiment id is configured.
func runApply(ctx context.Context, gCfg *config.GlobalConfig, htmlFile, changesFile, outFile string, zLogger zerolog.Logger) {
	if htmlFile == "" {
		zLogger.Fatal().Msg("apply mode requires --html")
	}
	changes := loadChanges(changesFile, zLogger)

	rawHTML, err := os.ReadFile(htmlFile)
	if err != nil {
		zLogger.Fatal().Err(err).Str("file", htmlFile).Msg("Failed to read HTML file")
	}
	doc, err := dom.Parse(string(rawHTML), zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to parse HTML")
	}

	coordinator := editor.NewCoordinator(
		gCfg.EditorConfig,
		doc,
		selector.NewGenerator(gCfg.SelectorConfig, zLogger),
		sanitizer.New(gCfg.SanitizerConfig, zLogger),
		editor.Dialogs{},
		zLogger,
	)
	if err := coordinator.SetupAll(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to activate editing session")
	}

	applied := 0
	for _, change := range changes {
		if err := coordinator.Apply(change); err != nil {
			zLogger.Error().Err(err).
				Str("selector", change.Selector).
				Str("type", string(change.Type)).
				Msg("Failed to apply change, skipping")
			continue
		}
		applied++
	}
	zLogger.Info().Int("applied", applied).Int("total", len(changes)).Msg("Changes applied")

	squashed := coordinator.SquashChanges()

	// Preview-mode teardown keeps the applied values and SDK attributes in
	// the output document.
	if err := coordinator.TeardownAll(false); err != nil {
		zLogger.Warn().Err(err).Msg("Session teardown reported failures")
	}

	outHTML, err := doc.HTML()
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to serialize document")
	}
	writeOutput(outFile, outHTML, zLogger)

	if gCfg.EditorConfig.ExperimentID != "" {
		store, err := datastore.NewChangesetStore(gCfg.StorageConfig, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to open changeset store")
		}
		defer store.Close()
		if err := store.Save(ctx, gCfg.EditorConfig.ExperimentID, squashed); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to save changeset")
		}
	} else {
		payload, _ := json.MarshalIndent(squashed, "", "  ")
		zLogger.Info().Int("entries", len(squashed)).Msg("Squashed changeset (not saved, no experiment id)")
		fmt.Println(string(payload))
	}
}

// runPreview applies the changeset to a live page in the headless browser.
func runPreview(ctx context.Context, gCfg *config.GlobalConfig, pageURL, changesFile, outFile string, zLogger zerolog.Logger) {
	if pageURL == "" {
		zLogger.Fatal().Msg("preview mode requires --url")
	}
	changes := loadChanges(changesFile, zLogger)

	gCfg.PreviewConfig.Enabled = true
	browserManager := preview.NewBrowserManager(gCfg.PreviewConfig, zLogger)
	if err := browserManager.Start(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to start preview browser")
	}
	defer browserManager.Stop()

	result, err := browserManager.PreviewChanges(ctx, pageURL, changes, gCfg.EditorConfig.ExperimentID)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Preview run failed")
	}

	zLogger.Info().
		Str("url", result.URL).
		Int("applied", result.AppliedCount).
		Int("failed", result.FailedCount).
		Msg("Preview complete")
	writeOutput(outFile, result.HTML, zLogger)
}

// runShow lists saved changesets, or prints the one for the configured
// experiment id.
func runShow(ctx context.Context, gCfg *config.GlobalConfig, zLogger zerolog.Logger) {
	store, err := datastore.NewChangesetStore(gCfg.StorageConfig, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to open changeset store")
	}
	defer store.Close()

	if gCfg.EditorConfig.ExperimentID == "" {
		experiments, err := store.ListExperiments(ctx)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to list changesets")
		}
		for _, id := range experiments {
			fmt.Println(id)
		}
		return
	}

	changes, err := store.Load(ctx, gCfg.EditorConfig.ExperimentID)
	if err != nil {
		zLogger.Fatal().Err(err).Str("experiment", gCfg.EditorConfig.ExperimentID).Msg("Failed to load changeset")
	}
	payload, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to marshal changeset")
	}
	fmt.Println(string(payload))
}

func loadChanges(changesFile string, zLogger zerolog.Logger) []models.Change {
	if changesFile == "" {
		zLogger.Fatal().Msg("--changes argument is required for this mode")
	}
	raw, err := os.ReadFile(changesFile)
	if err != nil {
		zLogger.Fatal().Err(err).Str("file", changesFile).Msg("Failed to read changes file")
	}
	var changes []models.Change
	if err := json.Unmarshal(raw, &changes); err != nil {
		zLogger.Fatal().Err(err).Str("file", changesFile).Msg("Failed to parse changes file")
	}
	return changes
}

func writeOutput(outFile, content string, zLogger zerolog.Logger) {
	if outFile == "" {
		fmt.Println(content)
		return
	}
	if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
		zLogger.Fatal().Err(err).Str("file", outFile).Msg("Failed to write output file")
	}
	zLogger.Info().Str("file", outFile).Msg("Output written")
}
