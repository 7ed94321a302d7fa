package commands

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"pickem/ingestion/internal/batch"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{})
	defer rootCmd.SetArgs(nil)

	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "streaks")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	for _, name := range []string{"ratings", "schedule", "streaks", "migrate", "alias", "trigger"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestExitCode(t *testing.T) {
	aborted := &batch.RunAbortedError{Feed: "ratings", Counts: batch.Counts{"team_not_found": 1}}

	assert.Equal(t, ExitAborted, ExitCode(aborted))
	assert.Equal(t, ExitAborted, ExitCode(fmt.Errorf("ratings run aborted: %w", aborted)))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("connection refused")))
}

func TestScheduleCommand_RequiresFile(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"schedule"})
	defer rootCmd.SetArgs(nil)

	assert.Error(t, rootCmd.Execute())
}
