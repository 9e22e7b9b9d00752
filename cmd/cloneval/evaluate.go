package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cloneval/app"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
	"github.com/ludo-technologies/cloneval/service"
)

// EvaluateCommand handles the evaluate CLI command
type EvaluateCommand struct {
	configFile string

	// Selection
	types []string
	seeds string
	ks    []int

	// Path templates
	groundTruth string
	detector    string
	samples     string
	results     string

	// Loader options, applied to both sources
	normalizer      string
	headerMode      string
	existenceFilter bool
	sourceRoot      string

	// Performance
	workers int
	timeout time.Duration

	// Output format flags (only one should be true)
	json bool
	yaml bool
	csv  bool

	verbose    bool
	noProgress bool
}

// NewEvaluateCommand creates a new evaluate command
func NewEvaluateCommand() *EvaluateCommand {
	return &EvaluateCommand{
		normalizer: domain.NormalizerFirstDot,
		headerMode: string(domain.HeaderModeAuto),
		timeout:    time.Duration(config.DefaultTimeoutSeconds) * time.Second,
	}
}

// CreateCobraCommand creates the Cobra command for evaluation
func (c *EvaluateCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [dataset]",
		Short: "Evaluate detector output against the ground truth",
		Long: `Evaluate a clone detector report against ground-truth clone pairs.

The dataset directory holds one ground-truth file per clone type, the
detector report and one query sample per seed. Every (clone type, seed)
pair is evaluated independently; a failing unit is reported and the
others still run.

Examples:
  # Evaluate every clone type found under ./bcb/groundtruth
  cloneval evaluate bcb

  # Only T1 and T2, seeds 0 to 4, precision at 1, 5 and 10
  cloneval evaluate bcb --types T1,T2 --seeds 0-4 --k 1,5,10

  # Drop pairs whose source files are missing
  cloneval evaluate bcb --existence-filter --source-root /data/bcb/src

  # Write a JSON report to output.directory
  cloneval evaluate bcb --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runEvaluate,
	}

	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Path to configuration file")

	cmd.Flags().StringSliceVarP(&c.types, "types", "t", nil, "Clone types to evaluate (default: discovered from ground truth)")
	cmd.Flags().StringVar(&c.seeds, "seeds", "", "Seeds to evaluate, e.g. 0,1,2 or 0-9")
	cmd.Flags().IntSliceVar(&c.ks, "k", nil, "Precision cut-offs (default 5,10)")

	cmd.Flags().StringVar(&c.groundTruth, "ground-truth", "", "Ground-truth path template, {type} is replaced")
	cmd.Flags().StringVar(&c.detector, "detector", "", "Detector report path template")
	cmd.Flags().StringVar(&c.samples, "samples", "", "Sample path template, {seed} is replaced")
	cmd.Flags().StringVar(&c.results, "results", "", "CSV file result rows are appended to, empty disables it")

	cmd.Flags().StringVar(&c.normalizer, "normalizer", c.normalizer, "Fragment normalizer for both sources: first_dot, last_dot")
	cmd.Flags().StringVar(&c.headerMode, "header-mode", c.headerMode, "Header handling: auto, always, never")
	cmd.Flags().BoolVar(&c.existenceFilter, "existence-filter", false, "Drop pairs whose files are missing under --source-root")
	cmd.Flags().StringVar(&c.sourceRoot, "source-root", "", "Directory holding the dataset's source files")

	cmd.Flags().IntVarP(&c.workers, "workers", "w", 0, "Units evaluated concurrently (default: number of CPUs)")
	cmd.Flags().DurationVar(&c.timeout, "timeout", c.timeout, "Maximum time for the whole run (e.g. 10m, 0 disables)")

	cmd.Flags().BoolVar(&c.json, "json", false, "Generate JSON report file")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Generate YAML report file")
	cmd.Flags().BoolVar(&c.csv, "csv", false, "Generate CSV report file")

	cmd.Flags().BoolVarP(&c.verbose, "verbose", "v", false, "Print each unit as it completes")
	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")

	_ = cmd.Flags().MarkHidden("header-mode")

	return cmd
}

// runEvaluate executes the evaluate command
func (c *EvaluateCommand) runEvaluate(cmd *cobra.Command, args []string) error {
	override, err := c.createEvaluationRequest(args)
	if err != nil {
		return &usageError{err: err}
	}

	loader := service.NewConfigurationLoaderWithFlags(GetExplicitFlags(cmd))
	req, cfg, err := loader.LoadEvaluationRequest(c.configFile, override)
	if err != nil {
		return err
	}
	if req.DatasetRoot == "" {
		req.DatasetRoot = "."
	}

	if req.OutputFormat == domain.OutputFormatText {
		req.OutputWriter = cmd.OutOrStdout()
	} else {
		ext := service.NewOutputFormatResolver().Extension(req.OutputFormat)
		req.OutputPath, err = generateOutputFilePath("cloneval", ext, cfg.Output.Directory)
		if err != nil {
			return domain.NewOutputError("failed to generate output path", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var progress domain.ProgressManager
	if req.ShowProgress {
		progress = service.NewProgressManager()
		progress.SetWriter(cmd.ErrOrStderr())
		defer progress.Close()
	}

	useCase, err := app.NewEvaluateUseCaseFromConfig(ctx, cfg, req, app.EvaluateDependencies{
		Status:   cmd.ErrOrStderr(),
		Progress: progress,
	})
	if err != nil {
		return err
	}

	if _, err := useCase.Execute(ctx, *req); err != nil {
		return err
	}
	if req.ResultsFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Results appended to %s\n", req.ResultsFile)
	}
	return nil
}

// createEvaluationRequest creates the command-line override request
func (c *EvaluateCommand) createEvaluationRequest(args []string) (*domain.EvaluationRequest, error) {
	outputFormat, _, err := service.NewOutputFormatResolver().Determine(c.json, c.yaml, c.csv)
	if err != nil {
		return nil, err
	}

	seeds, err := config.ParseIntList(c.seeds)
	if err != nil {
		return nil, fmt.Errorf("invalid --seeds: %w", err)
	}

	categories := make([]domain.CloneCategory, 0, len(c.types))
	for _, t := range c.types {
		categories = append(categories, domain.CloneCategory(t))
	}

	settings := domain.SourceSettings{
		Normalizer:      c.normalizer,
		HeaderMode:      domain.HeaderMode(c.headerMode),
		ExistenceFilter: c.existenceFilter,
		SourceRoot:      c.sourceRoot,
	}

	req := &domain.EvaluationRequest{
		Categories:          categories,
		Seeds:               seeds,
		KValues:             c.ks,
		GroundTruthTemplate: c.groundTruth,
		DetectorTemplate:    c.detector,
		SampleTemplate:      c.samples,
		GroundTruth:         settings,
		Detector:            settings,
		MaxWorkers:          c.workers,
		Timeout:             c.timeout,
		OutputFormat:        outputFormat,
		ResultsFile:         c.results,
		ShowProgress:        !c.noProgress,
		Verbose:             c.verbose,
		ConfigPath:          c.configFile,
	}
	if len(args) > 0 {
		req.DatasetRoot = args[0]
	}
	return req, nil
}

// NewEvaluateCmd creates and returns the evaluate cobra command
func NewEvaluateCmd() *cobra.Command {
	return NewEvaluateCommand().CreateCobraCommand()
}
