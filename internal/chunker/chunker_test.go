package chunker

import (
	"strings"
	"testing"

	"github.com/tabletop-tools/gm-assistant/internal/source"
)

func note(content string) source.Document {
	return source.Document{
		Source:   "vault/note.md",
		Filename: "note.md",
		Type:     source.TypeCampaignNote,
		Content:  content,
	}
}

// TestSplit_HeadingSections tests splitting at H1 and H2 boundaries.
func TestSplit_HeadingSections(t *testing.T) {
	input := `# Riverside

A fishing town at the mouth of the Silt River.

## Notable NPCs

[[Captain Aldric]] runs the harbor watch and collects the tax.

## Locations

The Rusty Anchor tavern sits on the pier, always crowded at dusk.
`

	splitter := New(0, 0)
	chunks, err := splitter.Split(note(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	if !strings.Contains(chunks[0].Text, "fishing town") {
		t.Errorf("Chunk 0 missing intro content: %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "## Notable NPCs") {
		t.Errorf("Chunk 1 should start with its heading, got %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[1].Text, "[[Captain Aldric]]") {
		t.Errorf("Chunk 1 should carry wiki-link markup verbatim: %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[2].Text, "Rusty Anchor") {
		t.Errorf("Chunk 2 missing section content: %q", chunks[2].Text)
	}

	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("Chunk %d has ordinal %d", i, c.Ordinal)
		}
		if c.Page != 0 {
			t.Errorf("Note chunk %d has page %d, expected 0", i, c.Page)
		}
	}
}

// TestSplit_NoHeadings tests that a heading-free note is a single chunk.
func TestSplit_NoHeadings(t *testing.T) {
	input := `Just some session notes without any structure.

The party rested at the inn and argued about the map.
`

	splitter := New(0, 0)
	chunks, err := splitter.Split(note(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "argued about the map") {
		t.Errorf("Chunk missing content: %q", chunks[0].Text)
	}
}

// TestSplit_PreambleBeforeFirstHeading keeps text above the first heading.
func TestSplit_PreambleBeforeFirstHeading(t *testing.T) {
	input := `Loose note jotted before any heading was added to this file.

# Actual Section

Content under the heading goes here for retrieval.
`

	splitter := New(0, 0)
	chunks, err := splitter.Split(note(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Loose note jotted") {
		t.Errorf("Preamble chunk missing: %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "# Actual Section") {
		t.Errorf("Section chunk should start with heading: %q", chunks[1].Text)
	}
}

// TestSplit_Deterministic verifies identical input yields identical chunks.
func TestSplit_Deterministic(t *testing.T) {
	input := `# One

First section with enough text to survive the minimum.

## Two

Second section with enough text to survive the minimum.
`

	splitter := New(0, 0)
	first, err := splitter.Split(note(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := splitter.Split(note(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestSplit_EmptyDocument yields no chunks and no error.
func TestSplit_EmptyDocument(t *testing.T) {
	splitter := New(0, 0)

	for _, content := range []string{"", "   \n\n  "} {
		chunks, err := splitter.Split(note(content))
		if err != nil {
			t.Fatalf("Split(%q) failed: %v", content, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%q): expected 0 chunks, got %d", content, len(chunks))
		}
	}
}

// TestSplit_DropsFragments drops units below the minimum size.
func TestSplit_DropsFragments(t *testing.T) {
	splitter := New(0, 0)
	chunks, err := splitter.Split(note("# T\n\nhi"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected fragment to be dropped, got %d chunks", len(chunks))
	}
}

// TestSplit_OversizedParagraph hard-splits a paragraph beyond the bound.
func TestSplit_OversizedParagraph(t *testing.T) {
	splitter := New(100, 10)
	long := strings.TrimSpace(strings.Repeat("riverside harbor ", 20)) // ~340 chars, no paragraph breaks

	chunks, err := splitter.Split(note(long))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("Expected the paragraph to split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 100 {
			t.Errorf("Chunk %d exceeds bound: %d chars", i, len(c.Text))
		}
	}
}

// TestSplit_RulebookPages chunks per page and records page numbers.
func TestSplit_RulebookPages(t *testing.T) {
	doc := source.Document{
		Source:   "rulebooks/core.pdf",
		Filename: "core.pdf",
		Type:     source.TypeRulebook,
		Pages: []source.Page{
			{Number: 1, Text: "Grappling requires an opposed strength check against the target."},
			{Number: 2, Text: "Falling damage is one die per ten feet fallen, to a maximum of twenty dice."},
		},
	}

	splitter := New(0, 0)
	chunks, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Page != 1 || chunks[1].Page != 2 {
		t.Errorf("Page numbers wrong: %d, %d", chunks[0].Page, chunks[1].Page)
	}
	if chunks[0].Ordinal != 0 || chunks[1].Ordinal != 1 {
		t.Errorf("Ordinals wrong: %d, %d", chunks[0].Ordinal, chunks[1].Ordinal)
	}
	if !strings.Contains(chunks[0].Text, "Grappling") {
		t.Errorf("Page 1 chunk missing content: %q", chunks[0].Text)
	}
}

// TestSplit_RulebookSkipsEmptyPages drops blank pages without gaps in ordinals.
func TestSplit_RulebookSkipsEmptyPages(t *testing.T) {
	doc := source.Document{
		Source:   "rulebooks/core.pdf",
		Filename: "core.pdf",
		Type:     source.TypeRulebook,
		Pages: []source.Page{
			{Number: 1, Text: "Initiative order is rolled once at the start of combat."},
			{Number: 2, Text: "   "},
			{Number: 3, Text: "Surprised combatants skip their first round entirely."},
		},
	}

	splitter := New(0, 0)
	chunks, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Ordinal != 1 {
		t.Errorf("Ordinals should be contiguous, got %d", chunks[1].Ordinal)
	}
	if chunks[1].Page != 3 {
		t.Errorf("Second chunk should come from page 3, got %d", chunks[1].Page)
	}
}
