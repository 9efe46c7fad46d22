package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/gm-assistant/internal/assistant"
	"github.com/tabletop-tools/gm-assistant/internal/classifier"
	"github.com/tabletop-tools/gm-assistant/internal/embedding"
	"github.com/tabletop-tools/gm-assistant/internal/generation"
	"github.com/tabletop-tools/gm-assistant/internal/prompt"
	"github.com/tabletop-tools/gm-assistant/internal/retrieval"
	"github.com/tabletop-tools/gm-assistant/internal/storage"
)

const answerWidth = 80

var askCollection string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed material",
	Long: `Answers a question from the indexed campaign notes or rulebooks.
With a question argument it answers once and exits; without one it starts an
interactive session.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "campaign",
		"collection to query (campaign or rules)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	service, closeFn, err := buildAssistant()
	if err != nil {
		return err
	}
	defer closeFn()

	if len(args) > 0 {
		collection, err := resolveCollection(askCollection)
		if err != nil {
			return err
		}
		return answer(ctx, service, collection, strings.Join(args, " "))
	}

	return interactive(ctx, service)
}

// buildAssistant wires the question-answering stack from configuration.
func buildAssistant() (*assistant.Service, func(), error) {
	store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to Qdrant: %w", err)
	}

	embedder, err := embedding.New(cfg.OpenAIAPIKey, 0)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create embedding client: %w", err)
	}

	cls, err := classifier.New(cfg.TierLimits(), cfg.Thresholds())
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	generator, err := generation.NewClient(generation.Config{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.AnswerModel,
		MaxTokens: cfg.AnswerMaxTokens,
		Timeout:   cfg.AnswerTimeout,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	service := assistant.New(
		cls,
		retrieval.NewEngine(embedder, store, nil),
		prompt.NewAssembler(cfg.ContextMaxChars),
		generator,
		nil,
	)

	return service, func() { store.Close() }, nil
}

func resolveCollection(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "campaign":
		return storage.CollectionCampaign, nil
	case "rules", "rulebook":
		return storage.CollectionRules, nil
	default:
		return "", fmt.Errorf("unknown collection %q (want campaign or rules)", name)
	}
}

// interactive runs the menu loop: pick a collection, ask, repeat.
func interactive(ctx context.Context, service *assistant.Service) error {
	reader := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println()
		fmt.Println("[1] Campaign notes")
		fmt.Println("[2] Rulebooks")
		fmt.Println("[3] Exit")
		fmt.Print("> ")

		if !reader.Scan() {
			return reader.Err()
		}

		var collection string
		switch strings.TrimSpace(reader.Text()) {
		case "1":
			collection = storage.CollectionCampaign
		case "2":
			collection = storage.CollectionRules
		case "3", "q", "exit":
			return nil
		default:
			fmt.Println("Please pick 1, 2 or 3.")
			continue
		}

		fmt.Print("Question: ")
		if !reader.Scan() {
			return reader.Err()
		}
		question := strings.TrimSpace(reader.Text())
		if question == "" {
			continue
		}

		if err := answer(ctx, service, collection, question); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func answer(ctx context.Context, service *assistant.Service, collection, question string) error {
	resp, err := service.Ask(ctx, collection, question)
	if err != nil {
		return err
	}

	fmt.Printf("\n[Complexity: %s, %d documents]\n", resp.Tier, resp.Retrieved)

	if cfg.Verbose {
		fmt.Println("Sources:")
		for _, src := range resp.Context.Sources() {
			fmt.Printf("  - %s\n", src)
		}
	}

	fmt.Println()
	fmt.Println(wrap(resp.Answer, answerWidth))
	return nil
}

// wrap word-wraps text to the given width, preserving paragraph breaks.
func wrap(text string, width int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if len(current)+1+len(word) > width {
				out = append(out, current)
				current = word
				continue
			}
			current += " " + word
		}
		out = append(out, current)
	}
	return strings.Join(out, "\n")
}
