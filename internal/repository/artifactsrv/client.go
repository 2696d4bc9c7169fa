// Package artifactsrv uploads published run artifacts to a remote artifact
// server over plain HTTP PUT.
package artifactsrv

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/repository/artifactsrv"
)

type Repository struct {
	httpClient *http.Client
	tracer     trace.Tracer
	baseURL    string
	runID      string
}

func New(baseURL, runID string, options ...func(*Repository)) *Repository {
	repository := Repository{
		httpClient: defaults.HTTPClient,
		tracer:     defaults.TracerProvider.Tracer(tracerName),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		runID:      runID,
	}

	for _, apply := range options {
		apply(&repository)
	}

	return &repository
}

// Upload stores an artifact under the run's namespace. Artifact names may
// contain slashes; each segment is escaped separately so the server sees
// the same hierarchy the local reports directory uses.
func (r *Repository) Upload(ctx context.Context, name, contentType string, data []byte) error {
	ctx, span := r.tracer.Start(ctx, "Upload")
	defer span.End()

	fullURL := fmt.Sprintf("%s/runs/%s/%s", r.baseURL, url.PathEscape(r.runID), escapePath(name))

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, fullURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}

	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Content-Length", strconv.Itoa(len(data)))

	response, err := r.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send HTTP request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	return nil
}

func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}

func WithHTTPClient(httpClient *http.Client) func(*Repository) {
	return func(r *Repository) {
		r.httpClient = httpClient
	}
}

func WithTracerProvider(tp trace.TracerProvider) func(*Repository) {
	return func(r *Repository) {
		r.tracer = tp.Tracer(tracerName)
	}
}
