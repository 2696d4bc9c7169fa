package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/commandinit"
	"github.com/conveyor-ci/conveyor/internal/commands/run/journal"
	"github.com/conveyor-ci/conveyor/internal/commands/run/statussync"
	"github.com/conveyor-ci/conveyor/internal/log/semconv"
	"github.com/conveyor-ci/conveyor/internal/oauth/clientcreds"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/pipelineconfig"
	"github.com/conveyor-ci/conveyor/internal/repository/artifactsrv"
	"github.com/conveyor-ci/conveyor/internal/repository/ghstatus"
	"github.com/conveyor-ci/conveyor/internal/repository/statushook"
	"github.com/conveyor-ci/conveyor/internal/stage"
	"github.com/conveyor-ci/conveyor/internal/tool/git"
	"github.com/google/go-github/v69/github"
	"github.com/google/uuid"
	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

var ErrCommandFailed = errors.New("command failed")

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Executes the pipeline.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the pipeline file",
				Value:   "conveyor.yaml",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "exit non-zero when the outcome is UNSTABLE",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "dump the loaded pipeline config",
			},
		},
		Action: run,
	}
}

func run(cliCtx *cli.Context) error {
	ctx := cliCtx.Context

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().With().Str("command", "run").Logger()

	config, err := pipelineconfig.ReadConfigFile(cliCtx.String("config"), os.LookupEnv)
	if err != nil {
		logger.Error().Err(err).Msg("read pipeline file")
		return ErrCommandFailed
	}

	if cliCtx.Bool("debug") {
		pretty.Println(config)
	}

	runID := uuid.New().String()

	traceProvider, tpShutdown, err := commandinit.NewOpenTelemetry(ctx, "conveyor", runID)
	if err != nil {
		logger.Error().Err(err).Msg("init OTEL provider")
		return ErrCommandFailed
	}
	defer tpShutdown(ctx)

	logger = logger.With().
		Str(semconv.RunID, runID).
		Str(semconv.PipelineName, config.Name).
		Logger()

	ctx, cancel := context.WithCancelCause(ctx)
	stopChan := make(chan os.Signal, 1)

	errInterrupted := errors.New("interrupted")

	go func() {
		signal.Notify(stopChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		<-stopChan
		logger.Info().Msg("received cancel signal, aborting run")

		cancel(errInterrupted)
	}()

	ctx = logger.WithContext(ctx)

	store := artifact.NewStore()

	runJournal := journal.NewJournal(store, journal.WithConsoleWriter(os.Stdout))

	publisherOptions := []func(*artifact.Publisher){
		artifact.WithTracerProvider(traceProvider),
	}

	if config.ArtifactServer != nil {
		httpClient := http.DefaultClient
		if config.ArtifactServer.Token != "" {
			httpClient = oauth2.NewClient(
				ctx,
				oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.ArtifactServer.Token}),
			)
		}

		uploader := artifactsrv.New(
			config.ArtifactServer.URL,
			runID,
			artifactsrv.WithHTTPClient(httpClient),
			artifactsrv.WithTracerProvider(traceProvider),
		)

		publisherOptions = append(publisherOptions, artifact.WithUploader(uploader))
	}

	publisher := artifact.NewPublisher(store, config.ReportsDir, publisherOptions...)

	runnerOptions := []func(*pipeline.Runner){
		pipeline.WithObserver(runJournal),
		pipeline.WithLogSink(runJournal),
		pipeline.WithFinalizer(publisher),
		pipeline.WithTracerProvider(traceProvider),
	}

	var statusController *statussync.Controller
	var statusClient *statushook.Repository

	if config.Status != nil {
		httpClient, err := statusHTTPClient(ctx, config.Status)
		if err != nil {
			logger.Error().Err(err).Msg("init status hook auth")
			return ErrCommandFailed
		}

		statusClient = statushook.New(
			config.Status.URL,
			statushook.WithHTTPClient(httpClient),
			statushook.WithTracerProvider(traceProvider),
		)

		statusController = statussync.NewController(statusClient, runID)
		statusController.Start(ctx)

		runnerOptions = append(runnerOptions, pipeline.WithObserver(statusController))
	}

	gitClient := git.New(git.WithTracerProvider(traceProvider))

	var statusReporter *ghstatus.Repository

	if config.GitHub != nil {
		ghClient := github.NewClient(nil)
		if config.GitHub.Token != "" {
			ghClient = ghClient.WithAuthToken(config.GitHub.Token)
		}

		statusReporter = ghstatus.New(
			traceProvider,
			ghClient,
			config.GitHub.Owner,
			config.GitHub.Repo,
			config.GitHub.Context,
		)

		// the work dir may not hold a repo until checkout runs, so a
		// pending status is best effort
		if sha, err := gitClient.RevParse(ctx, config.WorkDir, "HEAD"); err == nil {
			if err := statusReporter.SetPending(ctx, sha, "pipeline running"); err != nil {
				logger.Warn().Err(err).Msg("set pending commit status")
			}
		}
	}

	factory := stage.NewFactory(
		stage.WithGitClient(gitClient),
		stage.WithTracerProvider(traceProvider),
	)

	stages, err := factory.Build(config, store)
	if err != nil {
		logger.Error().Err(err).Msg("build stages")
		return ErrCommandFailed
	}

	runner := pipeline.NewRunner(runnerOptions...)

	outcome := runner.Run(ctx, stages)

	logSummary(logger, runJournal.Records())
	logger.Info().Stringer("outcome", outcome).Msg("pipeline finished")

	// reporting must survive an abort
	reportCtx := context.WithoutCancel(ctx)
	group, groupCtx := errgroup.WithContext(reportCtx)

	if statusController != nil {
		group.Go(func() error {
			if err := statusController.Shutdown(groupCtx); err != nil {
				return fmt.Errorf("shutdown status controller: %w", err)
			}

			if err := statusClient.CompleteRun(groupCtx, runID, outcome.String(), time.Now()); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}

			return nil
		})
	}

	if statusReporter != nil {
		group.Go(func() error {
			sha, err := gitClient.RevParse(groupCtx, config.WorkDir, "HEAD")
			if err != nil {
				return fmt.Errorf("resolve HEAD: %w", err)
			}

			if err := statusReporter.SetOutcome(groupCtx, sha, outcome); err != nil {
				return fmt.Errorf("set commit status: %w", err)
			}

			return nil
		})
	}

	// reporting failures don't change the run outcome
	if err := group.Wait(); err != nil {
		logger.Warn().Err(err).Msg("report run outcome")
	}

	switch outcome {
	case pipeline.OutcomeUnstable:
		if cliCtx.Bool("strict") {
			return cli.Exit("pipeline unstable", 1)
		}

		return nil

	case pipeline.OutcomeFailure:
		return cli.Exit("pipeline failed", 1)

	case pipeline.OutcomeAborted:
		return cli.Exit("pipeline aborted", 130)
	}

	return nil
}

func statusHTTPClient(ctx context.Context, config *pipelineconfig.StatusConfig) (*http.Client, error) {
	if config.Token != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})

		return oauth2.NewClient(ctx, tokenSource), nil
	}

	if config.AuthURL != "" {
		privateKey, err := clientcreds.ReadPrivateKey(config.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}

		tokenSource := clientcreds.NewTokenSource(config.AuthURL, config.AuthClientID, privateKey)

		return oauth2.NewClient(ctx, tokenSource), nil
	}

	return http.DefaultClient, nil
}

func logSummary(logger zerolog.Logger, records []journal.Record) {
	for _, record := range records {
		event := logger.Info().
			Str(semconv.StageName, record.StageName).
			Str(semconv.StageClass, string(record.Class)).
			Str("conclusion", string(record.Conclusion))

		if !record.StartedAt.IsZero() && !record.FinishedAt.IsZero() {
			event = event.Dur("duration", record.FinishedAt.Sub(record.StartedAt))
		}

		event.Msg("stage result")
	}
}
