package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ragindex/internal/domain"
	"ragindex/internal/usecase"
)

var reclaimDryRun bool

var reclaimCmd = &cobra.Command{
	Use:   "reclaim [path]",
	Short: "Remove index directories orphaned by deleted or replaced source files",
	Long: `reclaim compares the fingerprint directories present under path against
the fingerprints of the source files currently in path, and removes any
directory that no longer corresponds to a live source file.

Examples:
  ragindex reclaim ./docs
  ragindex reclaim ./docs --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReclaim,
}

func init() {
	rootCmd.AddCommand(reclaimCmd)
	reclaimCmd.Flags().BoolVar(&reclaimDryRun, "dry-run", false, "report what would be removed without touching disk")
}

func runReclaim(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	c := GetConfig()
	if !reclaimDryRun && c.IsReadOnly(path) {
		return fmt.Errorf("%w: %s", domain.ErrReadOnlyCollection, path)
	}

	runID := uuid.NewString()
	report, err := usecase.Reclaim(path, reclaimDryRun)
	if err != nil {
		return fmt.Errorf("reclaim failed: %w", err)
	}

	verb := "removed"
	if reclaimDryRun {
		verb = "would remove"
	}
	fmt.Printf("[%s] Orphans found: %d (%s)\n", runID, report.OrphansFound, verb)
	fmt.Printf("Kept:          %d\n", report.Kept)
	fmt.Printf("Bytes freed:   %d\n", report.BytesFreed)
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	return nil
}
