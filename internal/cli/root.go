// Package cli wires the ragindex command tree: build, query,
// multi-query, reclaim, and stats subcommands, grounded on the
// teacher's internal/cli/root.go (PersistentPreRunE loading a
// directory-scoped config, subcommands self-registering via init()).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragindex/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragindex",
	Short: "Content-addressed RAG index cache and query CLI",
	Long: `ragindex builds and queries content-addressed vector indices over
plain-text source files: one index per file fingerprint, or a merged
index over a whole collection.

Example usage:
  ragindex build ./docs                          # build a per-file index for every source under ./docs
  ragindex query ./docs/<fingerprint> -q "..."   # query a single built index
  ragindex multi-query ./docs -q "..." --sources fp1,fp2  # fan out across shards
  ragindex reclaim ./docs                        # remove orphaned index directories
  ragindex stats ./docs                          # list source files and their fingerprints`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

// Execute runs the ragindex command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragindex.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
}

// GetConfig returns the config loaded by PersistentPreRunE.
func GetConfig() *config.Config { return cfg }

// GetRootDir returns the resolved working directory.
func GetRootDir() string { return rootDir }
