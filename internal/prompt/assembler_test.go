package prompt

import (
	"strings"
	"testing"

	"github.com/tabletop-tools/gm-assistant/internal/storage"
)

func scored(source, text string, score float64) *storage.ScoredChunk {
	return &storage.ScoredChunk{
		Chunk: &storage.Chunk{
			Source:     source,
			Filename:   source,
			Collection: storage.CollectionCampaign,
			DocType:    "campaign-note",
			Text:       text,
		},
		Score: score,
	}
}

// TestAssemble_OrdersByScore verifies descending relevance order.
func TestAssemble_OrdersByScore(t *testing.T) {
	a := NewAssembler(0)

	ctx := a.Assemble([]*storage.ScoredChunk{
		scored("b.md", "second most relevant passage about the harbor", 0.5),
		scored("c.md", "least relevant passage about the forest road", 0.2),
		scored("a.md", "most relevant passage about the harbor tax", 0.9),
	})

	if len(ctx.Passages) != 3 {
		t.Fatalf("Expected 3 passages, got %d", len(ctx.Passages))
	}
	want := []string{"a.md", "b.md", "c.md"}
	for i, src := range want {
		if ctx.Passages[i].Source != src {
			t.Errorf("Passage %d from %s, want %s", i, ctx.Passages[i].Source, src)
		}
	}
	if ctx.Truncated {
		t.Error("Nothing should be truncated")
	}
}

// TestAssemble_DropsNearIdenticalSameSource verifies same-source dedupe.
func TestAssemble_DropsNearIdenticalSameSource(t *testing.T) {
	a := NewAssembler(0)

	ctx := a.Assemble([]*storage.ScoredChunk{
		scored("a.md", "The harbor tax is two silver per crate.", 0.9),
		scored("a.md", "the harbor  tax is two silver per crate.", 0.8),
		scored("b.md", "The harbor tax is two silver per crate.", 0.7),
	})

	if len(ctx.Passages) != 2 {
		t.Fatalf("Expected 2 passages after dedupe, got %d", len(ctx.Passages))
	}
	if ctx.Passages[0].Source != "a.md" || ctx.Passages[1].Source != "b.md" {
		t.Errorf("Wrong passages kept: %s, %s", ctx.Passages[0].Source, ctx.Passages[1].Source)
	}
}

// TestAssemble_EnforcesCeiling verifies lowest-ranked passages drop first.
func TestAssemble_EnforcesCeiling(t *testing.T) {
	text := strings.Repeat("x", 30)
	a := NewAssembler(50)

	ctx := a.Assemble([]*storage.ScoredChunk{
		scored("a.md", text, 0.9),
		scored("b.md", text, 0.8),
		scored("c.md", text, 0.7),
	})

	if len(ctx.Passages) != 1 {
		t.Fatalf("Expected 1 passage under the ceiling, got %d", len(ctx.Passages))
	}
	if ctx.Passages[0].Source != "a.md" {
		t.Errorf("Highest-ranked passage should survive, got %s", ctx.Passages[0].Source)
	}
	if !ctx.Truncated {
		t.Error("Truncated should be set when the ceiling drops passages")
	}
}

// TestAssemble_Empty yields an empty, non-truncated context.
func TestAssemble_Empty(t *testing.T) {
	a := NewAssembler(0)
	ctx := a.Assemble(nil)

	if len(ctx.Passages) != 0 {
		t.Errorf("Expected no passages, got %d", len(ctx.Passages))
	}
	if ctx.Truncated {
		t.Error("Empty context must not be truncated")
	}
	if ctx.Render() != "" {
		t.Errorf("Empty context should render empty, got %q", ctx.Render())
	}
}

// TestPassage_Label checks provenance headers for both source types.
func TestPassage_Label(t *testing.T) {
	campaign := Passage{Filename: "Riverside.md", DocType: "campaign-note"}
	if got := campaign.Label(); got != "CAMPAIGN: Riverside.md" {
		t.Errorf("campaign label = %q", got)
	}

	rulebook := Passage{Filename: "core.pdf", DocType: "rulebook", Page: 12}
	if got := rulebook.Label(); got != "RULEBOOK: core.pdf p.12" {
		t.Errorf("rulebook label = %q", got)
	}

	noPage := Passage{Filename: "core.pdf", DocType: "rulebook"}
	if got := noPage.Label(); got != "RULEBOOK: core.pdf" {
		t.Errorf("pageless rulebook label = %q", got)
	}
}

// TestContext_Render checks the labelled block format.
func TestContext_Render(t *testing.T) {
	ctx := &Context{Passages: []Passage{
		{Filename: "Riverside.md", DocType: "campaign-note", Text: "The town floods in spring."},
	}}

	rendered := ctx.Render()
	if !strings.Contains(rendered, "=== CAMPAIGN: Riverside.md ===") {
		t.Errorf("Rendered context missing label block: %q", rendered)
	}
	if !strings.Contains(rendered, "The town floods in spring.") {
		t.Errorf("Rendered context missing passage text: %q", rendered)
	}
}

// TestContext_Sources dedupes source identities in rank order.
func TestContext_Sources(t *testing.T) {
	ctx := &Context{Passages: []Passage{
		{Source: "a.md"},
		{Source: "b.md"},
		{Source: "a.md"},
	}}

	sources := ctx.Sources()
	if len(sources) != 2 || sources[0] != "a.md" || sources[1] != "b.md" {
		t.Errorf("Sources = %v", sources)
	}
}
