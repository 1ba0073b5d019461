// Command clusterreport prints the four dashboard tabs for one cluster
// count as text tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dropoutlens/internal/config"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/infrastructure"
	"dropoutlens/internal/pipeline"
	"dropoutlens/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	k        int
	workbook string
	sheet    string
	limit    int
	tabs     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		err = apierrors.NewConfigError("failed to load configuration", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}

	fs := flag.NewFlagSet("clusterreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.IntVar(&opts.k, "k", cfg.Clustering.DefaultK, "number of clusters (2-10)")
	fs.StringVar(&opts.workbook, "workbook", cfg.Dataset.Path, "path to the dropout workbook")
	fs.StringVar(&opts.sheet, "sheet", cfg.Dataset.Sheet, "worksheet name")
	fs.IntVar(&opts.limit, "limit", pipeline.PreviewRows, "rows shown in the dataset tab (0 = all)")
	fs.StringVar(&opts.tabs, "tabs", "dataset,elbow,clusters,evaluation", "comma separated tabs to print")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.limit < 0 {
		err := apierrors.NewAppValidationError(fmt.Sprintf("-limit must not be negative, got %d", opts.limit))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}

	tabs, err := parseTabs(opts.tabs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg.Dataset.Path = opts.workbook
	cfg.Dataset.Sheet = opts.sheet

	ctx, _ = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.NewLogger(stderr, cfg.Logging.Level)
	p := pipeline.New(pipeline.ConfigFrom(cfg), nil, nil, logger)

	rep, err := build(ctx, p, opts.k, opts.limit)
	if err != nil {
		logger.ErrorContext(ctx, "report failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}

	rep.write(stdout, tabs)
	return exitOK
}

// report holds the computed views of every tab
type report struct {
	dataset    domain.DatasetView
	elbow      []domain.WCSSPoint
	clusters   *domain.ClusterView
	evaluation *domain.EvaluationView
}

// build prepares the dataset once and computes the remaining tabs
// concurrently from it
func build(ctx context.Context, p *pipeline.Pipeline, k, limit int) (*report, error) {
	prep, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	rep := &report{dataset: prep.View(limit)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		curve, err := p.Elbow(gctx, prep)
		rep.elbow = curve
		return err
	})
	g.Go(func() error {
		view, err := p.Cluster(gctx, prep, k)
		rep.clusters = view
		return err
	})
	g.Go(func() error {
		view, err := p.Evaluate(gctx, prep, k)
		rep.evaluation = view
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}

func exitCode(err error) int {
	errType, ok := apierrors.TypeOf(err)
	if !ok {
		return exitError
	}
	switch errType {
	case apierrors.ErrTypeInvalidClusterCount, apierrors.ErrTypeValidation:
		return exitUsage
	default:
		return exitError
	}
}
