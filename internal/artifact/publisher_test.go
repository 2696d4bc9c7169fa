package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	names []string
}

func (u *recordingUploader) Upload(_ context.Context, name, _ string, _ []byte) error {
	u.names = append(u.names, name)
	return nil
}

func TestStore(t *testing.T) {
	store := artifact.NewStore()

	store.Add("trivy/report.json", "application/json", []byte(`{}`))
	store.Add("zap/report.html", "text/html", []byte("<html/>"))

	// re-adding replaces
	store.Add("trivy/report.json", "application/json", []byte(`{"Results":[]}`))

	assert.Equal(t, 2, store.Len())

	got, ok := store.Get("trivy/report.json")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"Results":[]}`), got.Data)

	// sorted by name
	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "trivy/report.json", list[0].Name)
	assert.Equal(t, "zap/report.html", list[1].Name)
}

func TestPublisher_Finalize(t *testing.T) {
	t.Run("writes artifacts and manifest", func(t *testing.T) {
		dir := t.TempDir()

		store := artifact.NewStore()
		store.Add("logs/checkout.log", "text/plain", []byte("cloning\n"))
		store.Add("trivy/report.json", "application/json", []byte(`{}`))

		publisher := artifact.NewPublisher(store, dir)

		require.NoError(t, publisher.Finalize(context.Background(), pipeline.OutcomeUnstable))

		data, err := os.ReadFile(filepath.Join(dir, "logs", "checkout.log"))
		require.NoError(t, err)
		assert.Equal(t, "cloning\n", string(data))

		manifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)
		assert.Contains(t, string(manifest), `"outcome": "unstable"`)
		assert.Contains(t, string(manifest), "trivy/report.json")
	})

	t.Run("publishing twice yields the same set", func(t *testing.T) {
		dir := t.TempDir()

		store := artifact.NewStore()
		store.Add("report.html", "text/html", []byte("<html/>"))

		publisher := artifact.NewPublisher(store, dir)

		require.NoError(t, publisher.Finalize(context.Background(), pipeline.OutcomeSuccess))

		first, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)

		require.NoError(t, publisher.Finalize(context.Background(), pipeline.OutcomeSuccess))

		second, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)
		assert.Equal(t, first, second)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2) // report.html + manifest.json
	})

	t.Run("mirrors to the uploader", func(t *testing.T) {
		store := artifact.NewStore()
		store.Add("b.html", "text/html", []byte("b"))
		store.Add("a.json", "application/json", []byte("a"))

		uploader := recordingUploader{}
		publisher := artifact.NewPublisher(store, t.TempDir(), artifact.WithUploader(&uploader))

		require.NoError(t, publisher.Finalize(context.Background(), pipeline.OutcomeSuccess))

		assert.Equal(t, []string{"a.json", "b.html"}, uploader.names)
	})

	t.Run("publishes an empty run", func(t *testing.T) {
		dir := t.TempDir()

		publisher := artifact.NewPublisher(artifact.NewStore(), dir)

		require.NoError(t, publisher.Finalize(context.Background(), pipeline.OutcomeFailure))

		manifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)
		assert.Contains(t, string(manifest), `"outcome": "failure"`)
	})
}
