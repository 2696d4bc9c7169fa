// Package statushook posts stage progress to an external status webhook,
// such as a dashboard or chat bridge listening for pipeline updates.
package statushook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/repository/statushook"
)

type Repository struct {
	httpClient *http.Client
	tracer     trace.Tracer
	baseURL    string
}

func New(baseURL string, options ...func(*Repository)) *Repository {
	repository := Repository{
		httpClient: defaults.HTTPClient,
		tracer:     defaults.TracerProvider.Tracer(tracerName),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}

	for _, apply := range options {
		apply(&repository)
	}

	return &repository
}

func (r *Repository) doRequest(
	ctx context.Context,
	method,
	path string,
	body io.Reader,
) (*http.Response, error) {
	fullURL := r.baseURL + path
	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("Content-Type", "application/json; charset=utf-8")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("send HTTP request: %w", err)
	}

	return response, nil
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
