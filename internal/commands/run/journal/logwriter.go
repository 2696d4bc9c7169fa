package journal

import (
	"fmt"
	"io"
	"sync"

	"github.com/conveyor-ci/conveyor/internal/commands/run/log/buffer"
)

var _ io.WriteCloser = (*stageLogWriter)(nil)

// stageLogWriter tees stage output to the console and into a capture
// buffer. Closing it registers the captured log as a run artifact.
type stageLogWriter struct {
	journal   *Journal
	stageID   string
	buffer    *buffer.Buffer
	closeOnce sync.Once
}

func newStageLogWriter(journal *Journal, stageID string) *stageLogWriter {
	return &stageLogWriter{
		journal: journal,
		stageID: stageID,
		buffer:  buffer.NewBuffer(),
	}
}

func (w *stageLogWriter) Write(p []byte) (int, error) {
	// the capture buffer is authoritative; it never fails
	n, _ := w.buffer.Write(p)

	if _, err := w.journal.console.Write(p); err != nil {
		return n, fmt.Errorf("write console: %w", err)
	}

	return n, nil
}

func (w *stageLogWriter) Close() error {
	w.closeOnce.Do(func() {
		// skipped stages produce no output and no log artifact
		if w.buffer.Length() == 0 {
			return
		}

		name := fmt.Sprintf("logs/%s.log", w.stageID)
		w.journal.store.Add(name, "text/plain; charset=utf-8", w.buffer.Bytes())
	})

	return nil
}
