package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndReadBack(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	result := signing.BatchResult{
		Requested:   3,
		SignedCount: 2,
		Outcomes: []signing.Outcome{
			signing.Signed("AAA"),
			signing.Rejected(),
			signing.Signed("BBB"),
		},
	}

	runID, err := j.Record(ctx, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "DOG", "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B", result)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 3, runs[0].Requested)
	assert.Equal(t, 2, runs[0].SignedCount)
	assert.False(t, runs[0].Aborted)
	assert.Equal(t, "DOG", runs[0].Currency)

	outcomes, err := j.Outcomes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "signed", outcomes[0].Status)
	assert.Equal(t, "AAA", outcomes[0].TxHash)
	assert.Equal(t, "rejected", outcomes[1].Status)
	assert.Equal(t, 3, outcomes[2].Position)
}

func TestRecordAbortedRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	result := signing.BatchResult{
		Requested:   5,
		SignedCount: 1,
		Outcomes:    []signing.Outcome{signing.Signed(""), signing.Failed("timeout")},
		Aborted:     true,
	}

	runID, err := j.Record(ctx, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "DOG", "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B", result)
	require.NoError(t, err)

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Aborted)

	outcomes, err := j.Outcomes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "failed", outcomes[1].Status)
	assert.Equal(t, "timeout", outcomes[1].Reason)
}

func TestOutcomesUnknownRun(t *testing.T) {
	j := openTestJournal(t)

	outcomes, err := j.Outcomes(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
