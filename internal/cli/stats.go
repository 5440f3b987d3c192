package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragindex/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "List source files under path with their content fingerprints",
	Long: `stats is the operator-facing source discovery command (mirroring the
original multi-query CLI's --list-pdfs): it never touches an on-disk index, only reports
the files currently in path and the fingerprint each would build under.

Examples:
  ragindex stats ./docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	sources, err := usecase.ListFingerprints(path)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("no source files found")
		return nil
	}

	fmt.Printf("%-34s %10s  %s\n", "FINGERPRINT", "SIZE", "FILENAME")
	for _, s := range sources {
		fmt.Printf("%-34s %10d  %s\n", s.Fingerprint, s.Size, s.Filename)
	}
	return nil
}
