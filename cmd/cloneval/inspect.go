package main

import (
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cloneval/app"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/service"
)

// InspectCommand handles the inspect CLI command
type InspectCommand struct {
	configFile string

	format          string
	normalizer      string
	headerMode      string
	existenceFilter bool
	sourceRoot      string

	json bool
	yaml bool
	csv  bool
}

// NewInspectCommand creates a new inspect command
func NewInspectCommand() *InspectCommand {
	return &InspectCommand{
		format:     string(domain.SourceFormatAuto),
		normalizer: domain.NormalizerFirstDot,
		headerMode: string(domain.HeaderModeAuto),
	}
}

// CreateCobraCommand creates the Cobra command for source inspection
func (c *InspectCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <source...>",
		Short: "Show how clone-pair files load",
		Long: `Load one or more clone-pair files and report what was read: records,
accepted and skipped pairs, keys, unique fragments and the first malformed
records. Directories are searched for .csv, .tsv, .txt and .xml files and
glob patterns such as "groundtruth/**/*.csv" are expanded.

Examples:
  # Check a ground-truth file
  cloneval inspect bcb/groundtruth/T1.csv

  # Check a NiCad report with the detector normalizer
  cloneval inspect bcb/nicad/clones.xml --normalizer last_dot

  # Every source under a directory, as JSON
  cloneval inspect bcb --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runInspect,
	}

	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&c.format, "format", c.format, "Source format: auto, delimited, xml")
	cmd.Flags().StringVar(&c.normalizer, "normalizer", c.normalizer, "Fragment normalizer: first_dot, last_dot")
	cmd.Flags().StringVar(&c.headerMode, "header-mode", c.headerMode, "Header handling: auto, always, never")
	cmd.Flags().BoolVar(&c.existenceFilter, "existence-filter", false, "Drop pairs whose files are missing under --source-root")
	cmd.Flags().StringVar(&c.sourceRoot, "source-root", "", "Directory holding the dataset's source files")

	cmd.Flags().BoolVar(&c.json, "json", false, "Generate JSON report file")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Generate YAML report file")
	cmd.Flags().BoolVar(&c.csv, "csv", false, "Generate CSV report file")

	return cmd
}

// runInspect executes the inspect command
func (c *InspectCommand) runInspect(cmd *cobra.Command, args []string) error {
	outputFormat, ext, err := service.NewOutputFormatResolver().Determine(c.json, c.yaml, c.csv)
	if err != nil {
		return &usageError{err: err}
	}

	override := &domain.InspectRequest{
		Paths: args,
		Settings: domain.SourceSettings{
			Format:          domain.SourceFormat(c.format),
			Normalizer:      c.normalizer,
			HeaderMode:      domain.HeaderMode(c.headerMode),
			ExistenceFilter: c.existenceFilter,
			SourceRoot:      c.sourceRoot,
		},
		OutputFormat: outputFormat,
	}

	loader := service.NewConfigurationLoaderWithFlags(GetExplicitFlags(cmd))
	req, cfg, err := loader.LoadInspectRequest(c.configFile, override)
	if err != nil {
		return err
	}

	if req.OutputFormat == domain.OutputFormatText {
		req.OutputWriter = cmd.OutOrStdout()
	} else {
		req.OutputPath, err = generateOutputFilePath("inspect", ext, cfg.Output.Directory)
		if err != nil {
			return domain.NewOutputError("failed to generate output path", err)
		}
	}

	useCase := app.NewInspectUseCase(
		service.NewInspectService(),
		service.NewEvaluationFormatter(),
		service.NewFileOutputWriter(cmd.ErrOrStderr()),
	)
	_, err = useCase.Execute(cmd.Context(), *req)
	return err
}

// NewInspectCmd creates and returns the inspect cobra command
func NewInspectCmd() *cobra.Command {
	return NewInspectCommand().CreateCobraCommand()
}
