package stage

import (
	"context"
	"io"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/git"
)

var _ pipeline.Stage = (*Checkout)(nil)

type GitClient interface {
	Checkout(ctx context.Context, logWriter io.Writer, opts git.CheckoutOptions) error
}

type CheckoutOptions struct {
	RepoURL string `yaml:"repoUrl"`
	Ref     string `yaml:"ref"`
}

// Checkout pulls the revision under test into the work dir.
type Checkout struct {
	base
	client GitClient
	opts   CheckoutOptions
}

func NewCheckout(params Params, client GitClient, opts CheckoutOptions) *Checkout {
	return &Checkout{
		base:   newBase(params),
		client: client,
		opts:   opts,
	}
}

func (s *Checkout) Run(ctx context.Context, logWriter io.Writer) error {
	return s.client.Checkout(ctx, logWriter, git.CheckoutOptions{
		RepoURL: s.opts.RepoURL,
		Ref:     s.opts.Ref,
		Dir:     s.workDir,
	})
}
