package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/mwhite-dev/webidx/index"
)

var checkIndexDir string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the structural invariants of a sealed index",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkIndexDir, "index-dir", envOr("INDEX_DIR", ""), "directory holding the sealed index (required, or set INDEX_DIR)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := requireDirFlag("index-dir", checkIndexDir); err != nil {
		return err
	}
	report, err := index.Check(checkIndexDir)
	if err != nil {
		return err
	}
	log.Printf("check: ok — %d terms, %d postings", report.Terms, report.Postings)
	return nil
}
