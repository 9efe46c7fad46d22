package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/gm-assistant/internal/storage"
	"github.com/tabletop-tools/gm-assistant/internal/tracker"
)

var (
	clearCampaign bool
	clearRulebook bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop indexed collections and their fingerprints",
	Long: `Deletes the named collections from Qdrant together with their stored
fingerprints, so the next index run rebuilds from scratch. Without flags both
collections are cleared.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearCampaign, "campaign", false, "clear the campaign collection")
	clearCmd.Flags().BoolVar(&clearRulebook, "rulebook", false, "clear the rules collection")
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// No flags means clear everything.
	if !clearCampaign && !clearRulebook {
		clearCampaign = true
		clearRulebook = true
	}

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

	if clearCampaign {
		if err := clearCollection(ctx, store, tr, storage.CollectionCampaign); err != nil {
			return err
		}
		fmt.Println("Campaign collection cleared")
	}

	if clearRulebook {
		if err := clearCollection(ctx, store, tr, storage.CollectionRules); err != nil {
			return err
		}
		fmt.Println("Rules collection cleared")
	}

	return nil
}

func clearCollection(ctx context.Context, store *storage.QdrantStore, tr *tracker.Tracker, collection string) error {
	if err := store.DropCollection(ctx, collection); err != nil {
		return fmt.Errorf("drop %s: %w", collection, err)
	}
	if err := tr.Clear(ctx, collection); err != nil {
		return fmt.Errorf("clear fingerprints for %s: %w", collection, err)
	}
	return nil
}
