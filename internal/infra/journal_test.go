package infra

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenveil/screenveil/internal/domain"
)

// newTestJournal creates an encrypted journal in a temp directory.
func newTestJournal(t *testing.T) *EncryptedJournal {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)

	j, err := NewEncryptedJournal(t.TempDir(), key)
	require.NoError(t, err)

	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndRecent(t *testing.T) {
	j := newTestJournal(t)

	base := time.Now().Truncate(time.Millisecond)
	events := []domain.ViolationEvent{
		{Kind: domain.ViolationCaptureStarted, State: domain.StateRecording, OccurredAt: base},
		{Kind: domain.ViolationScreenshot, State: domain.StateScreenshotTaken, OccurredAt: base.Add(time.Second)},
		{Kind: domain.ViolationCaptureStopped, State: domain.StateIdle, OccurredAt: base.Add(2 * time.Second)},
	}
	for _, ev := range events {
		require.NoError(t, j.Record(ev))
	}

	got, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, domain.ViolationCaptureStopped, got[0].Kind)
	assert.Equal(t, domain.StateIdle, got[0].State)
	assert.Equal(t, domain.ViolationScreenshot, got[1].Kind)
	assert.Equal(t, domain.ViolationCaptureStarted, got[2].Kind)
	assert.Equal(t, base.UnixMilli(), got[2].OccurredAt.UnixMilli())
}

func TestJournalRecentLimit(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(domain.ViolationEvent{
			Kind:       domain.ViolationScreenshot,
			State:      domain.StateScreenshotTaken,
			OccurredAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := j.Recent(2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestJournalEmptyRecent(t *testing.T) {
	j := newTestJournal(t)
	got, err := j.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestJournalPersistsAcrossReopen verifies data survives with the same key.
func TestJournalPersistsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)

	j, err := NewEncryptedJournal(dataDir, key)
	require.NoError(t, err)
	require.NoError(t, j.Record(domain.ViolationEvent{
		Kind:       domain.ViolationScreenshot,
		State:      domain.StateScreenshotTaken,
		OccurredAt: time.Now(),
	}))
	require.NoError(t, j.Close())

	reopened, err := NewEncryptedJournal(dataDir, key)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Recent(10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestJournalFileIsEncrypted(t *testing.T) {
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)

	j, err := NewEncryptedJournal(dataDir, key)
	require.NoError(t, err)
	require.NoError(t, j.Record(domain.ViolationEvent{
		Kind:       domain.ViolationCaptureStarted,
		State:      domain.StateRecording,
		OccurredAt: time.Now(),
	}))
	path := j.JournalPath()
	require.NoError(t, j.Close())

	// Plaintext SQLite files start with this magic header; an encrypted
	// database must not.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data[:16]), "SQLite format 3")
}
