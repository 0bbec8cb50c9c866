package main

import (
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwhite-dev/webidx/index"
)

var (
	buildWebpagesDir     string
	buildPartialIndexDir string
	buildIndexDir        string
	buildBatchSize       int
	buildWorkers         int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build partial indexes from a corpus and merge them into a sealed index",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildWebpagesDir, "webpages-dir", envOr("WEBPAGES_DIR", ""), "directory of corpus document files (required, or set WEBPAGES_DIR)")
	buildCmd.Flags().StringVar(&buildPartialIndexDir, "partial-index-dir", envOr("PARTIAL_INDEX_DIR", ""), "scratch directory for partial-index files, must start empty (required, or set PARTIAL_INDEX_DIR)")
	buildCmd.Flags().StringVar(&buildIndexDir, "index-dir", envOr("INDEX_DIR", ""), "output directory for the sealed index, must start empty (required, or set INDEX_DIR)")
	buildCmd.Flags().IntVar(&buildBatchSize, "batch-size", index.BatchSize, "postings per partial index before flushing")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "tokenizer worker pool size (0 = runtime.NumCPU())")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := requireDirFlag("webpages-dir", buildWebpagesDir); err != nil {
		return err
	}
	if err := requireDirFlag("partial-index-dir", buildPartialIndexDir); err != nil {
		return err
	}
	if err := requireDirFlag("index-dir", buildIndexDir); err != nil {
		return err
	}

	runID := uuid.NewString()
	log.Printf("[%s] build: starting, webpages-dir=%s partial-index-dir=%s index-dir=%s",
		runID, buildWebpagesDir, buildPartialIndexDir, buildIndexDir)

	stats, err := index.Build(buildWebpagesDir, buildPartialIndexDir, buildIndexDir, index.BuildOptions{
		BatchSize: buildBatchSize,
		Workers:   buildWorkers,
		RunID:     runID,
	})
	if err != nil {
		return err
	}

	files, err := index.ListPartialIndexFiles(buildPartialIndexDir)
	if err != nil {
		return err
	}
	if err := index.Merge(files, buildPartialIndexDir, buildIndexDir, index.MergeOptions{
		Workers: buildWorkers,
		RunID:   runID,
	}); err != nil {
		return err
	}

	log.Printf("[%s] build: <widx indexer | %d documents, %d terms, %d postings, %d partial-index files, %s>",
		runID, stats.Docs, stats.Terms, stats.Postings, stats.PartialIndexFiles, stats.Elapsed)
	return nil
}
