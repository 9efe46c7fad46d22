package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/gm-assistant/internal/chunker"
	"github.com/tabletop-tools/gm-assistant/internal/embedding"
	"github.com/tabletop-tools/gm-assistant/internal/indexer"
	"github.com/tabletop-tools/gm-assistant/internal/source"
	"github.com/tabletop-tools/gm-assistant/internal/storage"
	"github.com/tabletop-tools/gm-assistant/internal/tracker"
)

var indexCmd = &cobra.Command{
	Use:       "index {campaign|rulebook|all}",
	Short:     "Incrementally index campaign notes and rulebooks",
	Long: `Scans the source directories, detects what changed since the last run
and only re-embeds new or edited documents. Unchanged documents cost nothing.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"campaign", "rulebook", "all"},
	RunE:      runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	target := args[0]
	if target != "campaign" && target != "rulebook" && target != "all" {
		return fmt.Errorf("unknown index target %q (want campaign, rulebook or all)", target)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	start := time.Now()

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	tr, err := tracker.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer tr.Close()

	embedder, err := embedding.New(cfg.OpenAIAPIKey, 0)
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}

	splitter := chunker.New(cfg.ChunkMaxChars, cfg.ChunkMinChars)
	logger := slog.Default()

	if target == "campaign" || target == "all" {
		if err := store.EnsureCollection(ctx, storage.CollectionCampaign); err != nil {
			return fmt.Errorf("ensure campaign collection: %w", err)
		}

		fmt.Println()
		fmt.Printf("Indexing campaign notes from %s...\n", cfg.VaultPath)
		pipeline := indexer.NewPipeline(
			storage.CollectionCampaign,
			source.NewNotesScanner(cfg.VaultPath),
			tr, splitter, embedder, store, logger,
		)
		report, err := pipeline.Run(ctx)
		if err != nil {
			return fmt.Errorf("index campaign notes: %w", err)
		}
		printReport("Campaign notes", report)
	}

	if target == "rulebook" || target == "all" {
		if err := store.EnsureCollection(ctx, storage.CollectionRules); err != nil {
			return fmt.Errorf("ensure rules collection: %w", err)
		}

		fmt.Println()
		fmt.Printf("Indexing rulebooks from %s...\n", cfg.RulebookPath)
		pipeline := indexer.NewPipeline(
			storage.CollectionRules,
			source.NewRulebookScanner(cfg.RulebookPath, source.NewPDFExtractor()),
			tr, splitter, embedder, store, logger,
		)
		report, err := pipeline.Run(ctx)
		if err != nil {
			return fmt.Errorf("index rulebooks: %w", err)
		}
		printReport("Rulebooks", report)
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func printReport(label string, report *indexer.Report) {
	fmt.Printf("%s indexed in %s\n", label, report.Duration.Round(time.Millisecond))
	fmt.Printf("  Added:     %d\n", report.Added)
	fmt.Printf("  Updated:   %d\n", report.Updated)
	fmt.Printf("  Removed:   %d\n", report.Removed)
	fmt.Printf("  Unchanged: %d\n", report.Unchanged)

	if len(report.Failed) > 0 {
		fmt.Println("  Failed:")
		for _, failure := range report.Failed {
			fmt.Printf("    - %s: %s\n", failure.Source, failure.Reason)
		}
	}
}
