// Package source enumerates corpus documents and computes their content
// fingerprints. Campaign notes are markdown files under a vault root;
// rulebooks are PDFs whose text is pulled out page by page.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocType identifies which of the two source types a document is.
type DocType string

const (
	TypeCampaignNote DocType = "campaign-note"
	TypeRulebook     DocType = "rulebook"
)

// Page is the extracted text of a single rulebook page.
type Page struct {
	Number int // 1-based
	Text   string
}

// Document is one scanned source document. It is rebuilt on every scan;
// only its fingerprint is persisted across runs.
type Document struct {
	Source      string // path-like identity, unique within a collection
	Filename    string
	Type        DocType
	Content     string
	Pages       []Page // rulebook only
	ContentHash string // sha256 hex of the raw file bytes
	ModTime     time.Time
}

// Failure records a document (or rulebook page) the scan could not read.
type Failure struct {
	Source string
	Err    error
}

// ScanResult carries the documents a scan produced plus the identities it
// had to skip. A failed file never aborts the rest of the scan.
type ScanResult struct {
	Documents []Document
	Failed    []Failure
}

// HashBytes returns the hex-encoded sha256 of raw content.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
