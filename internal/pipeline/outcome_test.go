package pipeline_test

import (
	"testing"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Merge(t *testing.T) {
	testCases := []struct {
		name     string
		current  pipeline.Outcome
		other    pipeline.Outcome
		expected pipeline.Outcome
	}{
		{"success + success", pipeline.OutcomeSuccess, pipeline.OutcomeSuccess, pipeline.OutcomeSuccess},
		{"success + unstable", pipeline.OutcomeSuccess, pipeline.OutcomeUnstable, pipeline.OutcomeUnstable},
		{"unstable + success", pipeline.OutcomeUnstable, pipeline.OutcomeSuccess, pipeline.OutcomeUnstable},
		{"unstable + failure", pipeline.OutcomeUnstable, pipeline.OutcomeFailure, pipeline.OutcomeFailure},
		{"failure + unstable", pipeline.OutcomeFailure, pipeline.OutcomeUnstable, pipeline.OutcomeFailure},
		{"failure + aborted", pipeline.OutcomeFailure, pipeline.OutcomeAborted, pipeline.OutcomeAborted},
		{"aborted + success", pipeline.OutcomeAborted, pipeline.OutcomeSuccess, pipeline.OutcomeAborted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.current.Merge(tc.other))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", pipeline.OutcomeSuccess.String())
	assert.Equal(t, "aborted", pipeline.OutcomeAborted.String())

	// out-of-range values must not panic
	assert.Equal(t, "", pipeline.Outcome(-1).String())
	assert.Equal(t, "", pipeline.Outcome(42).String())
}

func TestOutcome_Text(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		data, err := pipeline.OutcomeUnstable.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "unstable", string(data))
	})

	t.Run("unmarshal", func(t *testing.T) {
		var outcome pipeline.Outcome
		require.NoError(t, outcome.UnmarshalText([]byte("failure")))
		assert.Equal(t, pipeline.OutcomeFailure, outcome)
	})

	t.Run("unmarshal invalid", func(t *testing.T) {
		var outcome pipeline.Outcome
		assert.Error(t, outcome.UnmarshalText([]byte("meh")))
	})
}
