// Package prompt assembles retrieved chunks into a bounded, structured
// context payload for the generation collaborator.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tabletop-tools/gm-assistant/internal/source"
	"github.com/tabletop-tools/gm-assistant/internal/storage"
)

// DefaultMaxChars bounds the rendered context size.
const DefaultMaxChars = 24000

// Passage is one included excerpt with its provenance.
type Passage struct {
	Source     string
	Filename   string
	Collection string
	DocType    string
	Ordinal    int
	Page       int
	Score      float64
	Text       string
}

// Label renders the provenance header for the passage, e.g.
// "CAMPAIGN: Riverside.md" or "RULEBOOK: core.pdf p.12".
func (p Passage) Label() string {
	name := p.Filename
	if name == "" {
		name = p.Source
	}
	if p.DocType == string(source.TypeRulebook) && p.Page > 0 {
		return fmt.Sprintf("RULEBOOK: %s p.%d", name, p.Page)
	}
	if p.DocType == string(source.TypeRulebook) {
		return fmt.Sprintf("RULEBOOK: %s", name)
	}
	return fmt.Sprintf("CAMPAIGN: %s", name)
}

// Context is the assembled payload handed to generation. Passages are
// ordered by descending relevance and individually inspectable.
type Context struct {
	Passages  []Passage
	Truncated bool // true when the size ceiling dropped chunks
}

// Render formats the passages as labelled blocks for the prompt.
func (c *Context) Render() string {
	var b strings.Builder
	for _, p := range c.Passages {
		fmt.Fprintf(&b, "\n\n=== %s ===\n%s", p.Label(), p.Text)
	}
	return b.String()
}

// Sources returns the distinct source identities in rank order.
func (c *Context) Sources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, p := range c.Passages {
		if !seen[p.Source] {
			seen[p.Source] = true
			sources = append(sources, p.Source)
		}
	}
	return sources
}

// Assembler deduplicates, orders and bounds retrieved chunks.
type Assembler struct {
	maxChars int
}

// NewAssembler creates an assembler with the given character ceiling.
func NewAssembler(maxChars int) *Assembler {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Assembler{maxChars: maxChars}
}

// Assemble orders chunks by descending score, drops near-identical passages
// from the same source (overlapping windows retrieve the same text twice),
// and enforces the size ceiling by dropping lowest-ranked passages first.
func (a *Assembler) Assemble(results []*storage.ScoredChunk) *Context {
	ranked := make([]*storage.ScoredChunk, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	ctx := &Context{}
	total := 0

	for _, sc := range ranked {
		if isDuplicate(ctx.Passages, sc.Chunk) {
			continue
		}

		cost := len(sc.Chunk.Text)
		if total+cost > a.maxChars {
			// Lowest-ranked first: everything at or below this rank is out.
			ctx.Truncated = true
			break
		}

		ctx.Passages = append(ctx.Passages, Passage{
			Source:     sc.Chunk.Source,
			Filename:   sc.Chunk.Filename,
			Collection: sc.Chunk.Collection,
			DocType:    sc.Chunk.DocType,
			Ordinal:    sc.Chunk.Ordinal,
			Page:       sc.Chunk.Page,
			Score:      sc.Score,
			Text:       sc.Chunk.Text,
		})
		total += cost
	}

	return ctx
}

// isDuplicate reports whether an already-included passage from the same
// source carries near-identical text (one normalized text containing the
// other). The earlier passage ranks higher and wins.
func isDuplicate(included []Passage, chunk *storage.Chunk) bool {
	norm := normalize(chunk.Text)
	for _, p := range included {
		if p.Source != chunk.Source {
			continue
		}
		prior := normalize(p.Text)
		if strings.Contains(prior, norm) || strings.Contains(norm, prior) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
