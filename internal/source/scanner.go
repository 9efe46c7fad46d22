package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NotesScanner walks a vault root and produces one document per markdown file.
type NotesScanner struct {
	root string
}

// NewNotesScanner creates a scanner over the campaign notes root.
func NewNotesScanner(root string) *NotesScanner {
	return &NotesScanner{root: root}
}

// Scan recursively collects all .md files under the root. Unreadable files
// are reported in the result, not returned as an error.
func (s *NotesScanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() {
				result.Failed = append(result.Failed, Failure{Source: path, Err: &ReadError{Path: path, Err: walkErr}})
				return fs.SkipDir
			}
			result.Failed = append(result.Failed, Failure{Source: path, Err: &ReadError{Path: path, Err: walkErr}})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		doc, err := s.readNote(path, d)
		if err != nil {
			result.Failed = append(result.Failed, Failure{Source: path, Err: err})
			return nil
		}
		result.Documents = append(result.Documents, *doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *NotesScanner) readNote(path string, d fs.DirEntry) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	info, err := d.Info()
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	return &Document{
		Source:      path,
		Filename:    d.Name(),
		Type:        TypeCampaignNote,
		Content:     string(raw),
		ContentHash: HashBytes(raw),
		ModTime:     info.ModTime(),
	}, nil
}

// RulebookScanner walks a path for PDFs and produces one document per file,
// with text extracted per page through the extractor collaborator.
type RulebookScanner struct {
	root      string
	extractor PageExtractor
}

// NewRulebookScanner creates a scanner over the rulebook path.
func NewRulebookScanner(root string, extractor PageExtractor) *RulebookScanner {
	return &RulebookScanner{root: root, extractor: extractor}
}

// Scan collects all .pdf files under the root. A page that fails extraction
// is skipped and reported; the remaining pages of the book still count.
func (s *RulebookScanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			result.Failed = append(result.Failed, Failure{Source: path, Err: &ReadError{Path: path, Err: walkErr}})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}

		doc, pageFailures, err := s.readBook(path, d)
		if err != nil {
			result.Failed = append(result.Failed, Failure{Source: path, Err: err})
			return nil
		}
		result.Failed = append(result.Failed, pageFailures...)
		result.Documents = append(result.Documents, *doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *RulebookScanner) readBook(path string, d fs.DirEntry) (*Document, []Failure, error) {
	// The fingerprint hashes the raw PDF bytes, not the extracted text, so
	// change detection does not depend on extractor behavior.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}

	info, err := d.Info()
	if err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}

	extraction, err := s.extractor.ExtractPages(path)
	if err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}

	var failures []Failure
	for _, pageErr := range extraction.Failed {
		failures = append(failures, Failure{Source: path, Err: pageErr})
	}

	texts := make([]string, 0, len(extraction.Pages))
	for _, p := range extraction.Pages {
		texts = append(texts, p.Text)
	}

	return &Document{
		Source:      path,
		Filename:    d.Name(),
		Type:        TypeRulebook,
		Content:     strings.Join(texts, "\n\n"),
		Pages:       extraction.Pages,
		ContentHash: HashBytes(raw),
		ModTime:     info.ModTime(),
	}, failures, nil
}
