package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletop-tools/gm-assistant/internal/source"
)

func openTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func doc(src, content string) source.Document {
	return source.Document{
		Source:      src,
		Filename:    filepath.Base(src),
		Type:        source.TypeCampaignNote,
		Content:     content,
		ContentHash: source.HashBytes([]byte(content)),
		ModTime:     time.Now(),
	}
}

func TestClassify_AllNewOnFirstRun(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	docs := []source.Document{doc("a.md", "alpha"), doc("b.md", "beta")}
	cs, err := tr.Classify(ctx, "campaign", docs, nil)
	require.NoError(t, err)

	assert.Len(t, cs.New, 2)
	assert.Empty(t, cs.Changed)
	assert.Empty(t, cs.Unchanged)
	assert.Empty(t, cs.Deleted)
}

func TestClassify_UnchangedAfterCommit(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	d := doc("a.md", "alpha")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))

	cs, err := tr.Classify(ctx, "campaign", []source.Document{d}, nil)
	require.NoError(t, err)

	assert.Empty(t, cs.New)
	assert.Empty(t, cs.Changed)
	assert.Len(t, cs.Unchanged, 1)
	assert.Empty(t, cs.Deleted)
}

func TestClassify_ContentHashDecidesChange(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	original := doc("a.md", "alpha")
	require.NoError(t, tr.Commit(ctx, "campaign", original.Source, Fingerprint{
		ContentHash: original.ContentHash,
		ModTime:     original.ModTime,
	}))

	// One-byte edit changes the hash.
	edited := doc("a.md", "alphb")
	cs, err := tr.Classify(ctx, "campaign", []source.Document{edited}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.Changed, 1)

	// Touched but unedited: same hash, newer mod time, still unchanged.
	touched := original
	touched.ModTime = original.ModTime.Add(time.Hour)
	cs, err = tr.Classify(ctx, "campaign", []source.Document{touched}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.Unchanged, 1)
	assert.Empty(t, cs.Changed)
}

func TestClassify_DetectsDeleted(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	d := doc("gone.md", "vanishing")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))

	cs, err := tr.Classify(ctx, "campaign", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.md"}, cs.Deleted)
}

func TestClassify_UnreadableIsNotDeleted(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	a := doc("vault/a.md", "alpha")
	b := doc("vault/b.md", "beta")
	for _, d := range []source.Document{a, b} {
		require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
			ContentHash: d.ContentHash,
			ModTime:     d.ModTime,
		}))
	}

	// a.md fails to read this scan: absent from the documents, present in
	// the unreadable set. Only b.md, observed gone, is a deletion.
	cs, err := tr.Classify(ctx, "campaign", nil, []string{"vault/a.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vault/b.md"}, cs.Deleted)
}

func TestClassify_UnreadableDirectoryShieldsChildren(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	d := doc(filepath.Join("vault", "npcs", "Aldric.md"), "captain")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))

	// The whole root failed to walk (unmounted, mistyped): nothing under it
	// may be treated as deleted.
	cs, err := tr.Classify(ctx, "campaign", nil, []string{"vault"})
	require.NoError(t, err)
	assert.Empty(t, cs.Deleted)

	// An unrelated failed path shields nothing.
	cs, err = tr.Classify(ctx, "campaign", nil, []string{"other"})
	require.NoError(t, err)
	assert.Len(t, cs.Deleted, 1)
}

func TestClassify_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	d := doc("a.md", "alpha")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))

	// The rules collection has never seen this identity.
	cs, err := tr.Classify(ctx, "rules", []source.Document{d}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.New, 1)

	// And clearing rules must not touch campaign.
	require.NoError(t, tr.Clear(ctx, "rules"))
	cs, err = tr.Classify(ctx, "campaign", []source.Document{d}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.Unchanged, 1)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	tr := openTestTracker(t)

	d := doc("a.md", "alpha")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))
	require.NoError(t, tr.Remove(ctx, "campaign", d.Source))

	cs, err := tr.Classify(ctx, "campaign", []source.Document{d}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.New, 1, "removed fingerprint means the document is new again")
}

func TestOpen_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	tr, err := Open(path)
	require.NoError(t, err)

	d := doc("a.md", "alpha")
	require.NoError(t, tr.Commit(ctx, "campaign", d.Source, Fingerprint{
		ContentHash: d.ContentHash,
		ModTime:     d.ModTime,
	}))
	require.NoError(t, tr.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	cs, err := reopened.Classify(ctx, "campaign", []source.Document{d}, nil)
	require.NoError(t, err)
	assert.Len(t, cs.Unchanged, 1, "fingerprints must survive process restarts")
}
