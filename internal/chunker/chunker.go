// Package chunker splits source documents into retrieval-sized chunks.
// Markdown notes split at H1/H2 boundaries, rulebooks at page boundaries;
// both are then packed into size-bounded units at paragraph breaks.
// Splitting is deterministic: identical input always yields identical chunks.
package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/tabletop-tools/gm-assistant/internal/source"
)

// Default size bounds in characters.
const (
	DefaultMaxChars = 1500
	DefaultMinChars = 20
)

// Chunk is one retrieval unit cut from a document. Text is carried verbatim,
// including any [[cross-reference]] markup.
type Chunk struct {
	Ordinal int
	Page    int // rulebook page the chunk came from, 0 for notes
	Text    string
}

// Splitter cuts documents into chunks within [minChars, maxChars].
type Splitter struct {
	maxChars int
	minChars int
	parser   goldmark.Markdown
}

// New creates a splitter. Non-positive bounds fall back to the defaults.
func New(maxChars, minChars int) *Splitter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	md := goldmark.New(
		goldmark.WithParserOptions(
			gparser.WithAutoHeadingID(),
		),
	)
	return &Splitter{maxChars: maxChars, minChars: minChars, parser: md}
}

// Split cuts a document into ordered chunks. An empty document yields an
// empty slice, not an error. Chunks below the minimum useful size are
// dropped as fragment noise.
func (s *Splitter) Split(doc source.Document) ([]Chunk, error) {
	var chunks []Chunk

	if doc.Type == source.TypeRulebook {
		for _, page := range doc.Pages {
			for _, piece := range s.pack(page.Text) {
				chunks = append(chunks, Chunk{Ordinal: len(chunks), Page: page.Number, Text: piece})
			}
		}
		return chunks, nil
	}

	sections, err := s.sections([]byte(doc.Content))
	if err != nil {
		return nil, err
	}
	for _, section := range sections {
		for _, piece := range s.pack(section) {
			chunks = append(chunks, Chunk{Ordinal: len(chunks), Text: piece})
		}
	}
	return chunks, nil
}

// sections slices markdown at H1/H2 boundaries. Heading lines stay at the
// top of their section so retrieval keeps the heading context. A document
// with no headings is a single section.
func (s *Splitter) sections(src []byte) ([]string, error) {
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, nil
	}

	reader := text.NewReader(src)
	doc := s.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, src,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, err
	}

	boundaries := headingOffsets(doc, tree.Items)
	if len(boundaries) == 0 {
		return []string{string(src)}, nil
	}
	sort.Ints(boundaries)

	var sections []string
	if boundaries[0] > 0 {
		sections = append(sections, string(src[:boundaries[0]]))
	}
	for i, start := range boundaries {
		end := len(src)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		sections = append(sections, string(src[start:end]))
	}
	return sections, nil
}

// headingOffsets resolves each TOC item (including nested H2s) to the byte
// offset of its heading line.
func headingOffsets(doc ast.Node, items toc.Items) []int {
	var offsets []int
	for _, item := range items {
		if node := findHeadingByID(doc, string(item.ID)); node != nil {
			if node.Lines().Len() > 0 {
				offsets = append(offsets, node.Lines().At(0).Start)
			}
		}
		offsets = append(offsets, headingOffsets(doc, item.Items)...)
	}
	return offsets
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// pack greedily joins paragraphs into units of at most maxChars, hard-
// splitting any single paragraph that exceeds the bound on its own. Units
// shorter than minChars are discarded.
func (s *Splitter) pack(section string) []string {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil
	}

	var units []string
	var current strings.Builder

	flush := func() {
		unit := strings.TrimSpace(current.String())
		current.Reset()
		if len(unit) >= s.minChars {
			units = append(units, unit)
		}
	}

	for _, para := range paragraphBreak.Split(section, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for _, piece := range s.hardSplit(para) {
			if current.Len() > 0 && current.Len()+len(piece)+2 > s.maxChars {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
		}
	}
	flush()

	return units
}

// hardSplit cuts an oversized paragraph at the last space before the bound.
func (s *Splitter) hardSplit(para string) []string {
	if len(para) <= s.maxChars {
		return []string{para}
	}

	var pieces []string
	for len(para) > s.maxChars {
		cut := strings.LastIndex(para[:s.maxChars], " ")
		if cut <= 0 {
			cut = s.maxChars
		}
		pieces = append(pieces, strings.TrimSpace(para[:cut]))
		para = strings.TrimSpace(para[cut:])
	}
	if para != "" {
		pieces = append(pieces, para)
	}
	return pieces
}
