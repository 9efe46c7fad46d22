// Package assistant wires classification, retrieval, assembly and generation
// into the single Ask operation the command surface exposes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tabletop-tools/gm-assistant/internal/classifier"
	"github.com/tabletop-tools/gm-assistant/internal/prompt"
	"github.com/tabletop-tools/gm-assistant/internal/retrieval"
)

// Generator produces the final answer from the question and its assembled
// context.
type Generator interface {
	Answer(ctx context.Context, question string, pc *prompt.Context) (string, error)
}

// Response carries the answer together with how it was produced, so callers
// can surface the tier and the consulted sources.
type Response struct {
	Answer    string
	Tier      classifier.Tier
	Retrieved int
	Context   *prompt.Context
}

// Service answers questions over one collection at a time.
type Service struct {
	classifier *classifier.Classifier
	engine     *retrieval.Engine
	assembler  *prompt.Assembler
	generator  Generator
	logger     *slog.Logger
}

// New creates the assistant service.
func New(
	cls *classifier.Classifier,
	engine *retrieval.Engine,
	assembler *prompt.Assembler,
	generator Generator,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: cls,
		engine:     engine,
		assembler:  assembler,
		generator:  generator,
		logger:     logger,
	}
}

// Ask classifies the question, retrieves from the named collection, assembles
// bounded context and generates the answer. Retrieval or generation failures
// surface to the caller; an empty question is rejected before any call.
func (s *Service) Ask(ctx context.Context, collection, question string) (*Response, error) {
	if question == "" {
		return nil, errors.New("question is empty")
	}

	tier := s.classifier.Classify(question)
	limit := s.classifier.Count(tier)

	s.logger.Debug("question classified",
		"collection", collection,
		"tier", tier.String(),
		"limit", limit,
	)

	results, err := s.engine.Retrieve(ctx, retrieval.Query{
		Text:       question,
		Collection: collection,
		Tier:       tier,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	pc := s.assembler.Assemble(results)

	answer, err := s.generator.Answer(ctx, question, pc)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Response{
		Answer:    answer,
		Tier:      tier,
		Retrieved: len(results),
		Context:   pc,
	}, nil
}
