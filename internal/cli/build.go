package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragindex/internal/adapter/chunker"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/adapter/fingerprint"
	"ragindex/internal/adapter/fs"
	"ragindex/internal/domain"
	"ragindex/internal/usecase"
)

var (
	buildCollection bool
	buildIncludes   []string
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build content-addressed indices for source files",
	Long: `Build builds one index per source file's content fingerprint under the
given directory, or a single merged index when --collection is set.

Examples:
  ragindex build ./docs                # one index per file, sibling per-fingerprint directories
  ragindex build ./docs --collection   # one merged index under ./docs/.mini_rag_index`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVar(&buildCollection, "collection", false, "build a single merged index over every source file")
	buildCmd.Flags().StringSliceVar(&buildIncludes, "include", []string{"**/*.txt"}, "glob patterns for source files")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	c := GetConfig()
	if c.IsReadOnly(path) {
		return fmt.Errorf("%w: %s", domain.ErrReadOnlyCollection, path)
	}

	runID := uuid.NewString()

	walker := fs.NewWalker(buildIncludes, nil)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(files) == 0 {
		fmt.Println("no source files found")
		return nil
	}

	fmt.Printf("[%s] Scanning %s: %d source file(s)\n", runID, path, len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Building[reset]"),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)

	sources := make([]usecase.Source, 0, len(files))
	for _, f := range files {
		text, err := fs.ReadFile(f.Path)
		if err != nil {
			fmt.Printf("warning: skipping %s: %v\n", f.Path, err)
			bar.Add(1)
			continue
		}
		fp, err := fingerprint.File(f.Path)
		if err != nil {
			fmt.Printf("warning: skipping %s: %v\n", f.Path, err)
			bar.Add(1)
			continue
		}
		sources = append(sources, usecase.Source{
			Fingerprint: fp,
			Filename:    filepath.Base(f.Path),
			Text:        text,
		})
		bar.Add(1)
	}

	embedder, err := embedding.New(c.Embedding)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	splitter := chunker.NewRecursiveSplitter(c.Chunking.Size, c.Chunking.Overlap)
	builder := usecase.NewBuilder(splitter, embedder, c.Embedding.BatchSize, c.Chunking.Size, c.Chunking.Overlap)

	if buildCollection {
		report, err := builder.BuildCollection(sources, path)
		if err != nil {
			return fmt.Errorf("build collection: %w", err)
		}
		printBuildReport(runID, report)
		return nil
	}

	var totalChunks int
	var totalWarnings []domain.BuildWarning
	for _, s := range sources {
		outDir := filepath.Join(path, s.Fingerprint)
		report, err := builder.Build([]usecase.Source{s}, outDir)
		if err != nil {
			fmt.Printf("[%s] error building %s: %v\n", runID, s.Filename, err)
			continue
		}
		totalChunks += report.Manifest.Chunks
		totalWarnings = append(totalWarnings, report.Warnings...)
	}

	fmt.Printf("\n[%s] Build complete: %d file(s), %d chunk(s)\n", runID, len(sources), totalChunks)
	for _, w := range totalWarnings {
		fmt.Printf("  warning: %s: %s\n", w.Source, w.Reason)
	}
	return nil
}

func printBuildReport(runID string, report domain.BuildReport) {
	fmt.Printf("\n[%s] Build complete:\n", runID)
	fmt.Printf("  Fingerprints: %d\n", len(report.Manifest.Fingerprints))
	fmt.Printf("  Chunks:       %d\n", report.Manifest.Chunks)
	fmt.Printf("  Model:        %s\n", report.Manifest.EmbeddingModel)
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s: %s\n", w.Source, w.Reason)
	}
}
