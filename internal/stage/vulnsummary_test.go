package stage_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanReport(critical int) []byte {
	report := []byte(`{"Results": [{"Vulnerabilities": [`)

	for i := 0; i < critical; i++ {
		if i > 0 {
			report = append(report, ',')
		}
		report = append(report, []byte(`{"Severity": "CRITICAL"}`)...)
	}

	return append(report, []byte(`]}]}`)...)
}

func TestVulnSummary_Run(t *testing.T) {
	params := stage.Params{Name: "vulnsummary", Class: pipeline.ClassAdvisory}

	t.Run("no report to summarize", func(t *testing.T) {
		summary := stage.NewVulnSummary(params, artifact.NewStore(), stage.VulnSummaryOptions{})

		err := summary.Run(context.Background(), &bytes.Buffer{})
		assert.ErrorIs(t, err, pipeline.ErrSkip)
	})

	t.Run("below threshold", func(t *testing.T) {
		store := artifact.NewStore()
		store.Add(stage.TrivyJSONArtifact, "application/json", scanReport(0))

		summary := stage.NewVulnSummary(params, store, stage.VulnSummaryOptions{})

		var log bytes.Buffer
		require.NoError(t, summary.Run(context.Background(), &log))
		assert.Contains(t, log.String(), "no findings")
	})

	t.Run("critical findings breach the threshold", func(t *testing.T) {
		store := artifact.NewStore()
		store.Add(stage.TrivyJSONArtifact, "application/json", scanReport(3))

		summary := stage.NewVulnSummary(params, store, stage.VulnSummaryOptions{})

		err := summary.Run(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, pipeline.ErrSkip)
		assert.Contains(t, err.Error(), "3 critical findings")
	})

	t.Run("raised threshold", func(t *testing.T) {
		store := artifact.NewStore()
		store.Add(stage.TrivyJSONArtifact, "application/json", scanReport(3))

		summary := stage.NewVulnSummary(params, store, stage.VulnSummaryOptions{MaxCritical: 5})

		assert.NoError(t, summary.Run(context.Background(), &bytes.Buffer{}))
	})

	t.Run("malformed report", func(t *testing.T) {
		store := artifact.NewStore()
		store.Add(stage.TrivyJSONArtifact, "application/json", []byte("{"))

		summary := stage.NewVulnSummary(params, store, stage.VulnSummaryOptions{})

		assert.Error(t, summary.Run(context.Background(), &bytes.Buffer{}))
	})
}
