package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ludo-technologies/cloneval/internal/version"
	"github.com/ludo-technologies/cloneval/service"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the cloneval command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cloneval",
		Short: "Evaluate clone detector output against a ground truth",
		Long: `cloneval measures how well a clone detector (such as NiCad) retrieves
known clone pairs. For every clone type and sampling seed it compares the
detector's report with the ground truth and reports:

  • Recall over all ground-truth pairs
  • Precision@K for each configured cut-off
  • Mean Reciprocal Rank (MRR)
  • Mean Average Precision (MAP)

Results can be appended to a CSV file, stored in PostgreSQL and archived
to S3-compatible storage.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewEvaluateCmd())
	rootCmd.AddCommand(NewInspectCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports err with its category and recovery suggestions
func printError(w io.Writer, err error) {
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(w, "Error: %v\n", usageErr.err)
		return
	}

	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)

	fmt.Fprintf(w, "Error [%s]: %s\n", categorized.Category, categorized.Message)
	if categorized.Original != nil && categorized.Original.Error() != categorized.Message {
		fmt.Fprintf(w, "  %v\n", categorized.Original)
	}

	suggestions := categorizer.GetRecoverySuggestions(categorized.Category)
	if len(suggestions) > 0 {
		fmt.Fprintf(w, "\nSuggestions:\n")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
}

// usageError marks command-line mistakes that need no suggestions
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }
