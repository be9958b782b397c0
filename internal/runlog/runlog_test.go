package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkrx/krxsnap/internal/snapshot"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "krxsnap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_CompleteRun(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "etf", "2025-02-06", "2025-02-10")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	tally := snapshot.Tally{Weekend: 2, Empty: 1, Saved: 2}
	require.NoError(t, l.Complete(ctx, id, tally))

	entries, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "etf", e.Category)
	assert.Equal(t, "complete", e.Status)
	assert.Equal(t, tally, e.Tally)
	assert.NotNil(t, e.CompletedAt)
}

func TestLog_FailRun(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "kofia", "", "")
	require.NoError(t, err)
	require.NoError(t, l.Fail(ctx, id, "fetch fee disclosure: unexpected status 502"))

	entries, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Contains(t, entries[0].Error, "502")
}

func TestLog_RecentLimit(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Start(ctx, "stock-kospi", "2025-01-01", "2025-01-02")
		require.NoError(t, err)
	}

	entries, err := l.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
