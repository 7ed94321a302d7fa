package printer

import (
	"bytes"
	"errors"
	"testing"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/ingest"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevNoColor := Out, ErrOut, color.NoColor
	Out, ErrOut, color.NoColor = &out, &errOut, true
	t.Cleanup(func() { Out, ErrOut, color.NoColor = prevOut, prevErr, prevNoColor })
	return &out, &errOut
}

func TestError(t *testing.T) {
	_, errOut := capture(t)

	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("lists multiple suggestions", func(t *testing.T) {
		errOut.Reset()
		err := Error("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:")
		assert.Contains(t, errOut.String(), "2. Second option")
	})
}

func TestCommitted(t *testing.T) {
	out, _ := capture(t)

	id := uuid.MustParse("5f0c8d2e-1b7a-4c39-9e61-2d4f8a7b3c10")
	Committed(&ingest.Summary{Feed: "ratings", RunID: id, Records: 130})

	assert.Equal(t, "✓ ratings run 5f0c8d2e-1b7a-4c39-9e61-2d4f8a7b3c10 committed: 130 record(s)\n", out.String())
}

func TestAborted(t *testing.T) {
	_, errOut := capture(t)

	aborted := &batch.RunAbortedError{
		Feed:   "schedule",
		Counts: batch.Counts{"team_not_found": 2, "team_ambiguous": 1},
	}
	err := Aborted(aborted)

	var target *batch.RunAbortedError
	require.True(t, errors.As(err, &target), "original error stays matchable")
	assert.Same(t, aborted, target)

	text := errOut.String()
	assert.Contains(t, text, "schedule run aborted: nothing was written")
	assert.Contains(t, text, "team_not_found")
	assert.Contains(t, text, "teams.other_names")
	assert.Regexp(t, `total\s+3`, text)
	assert.Less(t, bytes.Index(errOut.Bytes(), []byte("team_ambiguous")), bytes.Index(errOut.Bytes(), []byte("team_not_found")), "categories are sorted")
}
