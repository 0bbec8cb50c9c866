package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhite-dev/webidx/index"
)

var (
	queryIndexDir string
	queryTopK     int
	queryRanked   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Interactively run boolean or ranked queries against a sealed index",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryIndexDir, "index-dir", envOr("INDEX_DIR", ""), "directory holding the sealed index (required, or set INDEX_DIR)")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", index.DefaultTopK, "number of results to print per query")
	queryCmd.Flags().BoolVar(&queryRanked, "ranked", false, "use TF-IDF ranked retrieval instead of boolean AND")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := requireDirFlag("index-dir", queryIndexDir); err != nil {
		return err
	}
	qe, err := index.NewQueryEngine(queryIndexDir)
	if err != nil {
		return err
	}

	fmt.Println("Enter query (or 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		start := time.Now()
		var urls []string
		var err error
		if queryRanked {
			urls, err = qe.RankedRetrieve(line, queryTopK)
		} else {
			urls, err = qe.BoolRetrieve(line, queryTopK)
		}
		if err != nil {
			log.Printf("query error: %v", err)
			continue
		}

		for i, u := range urls {
			fmt.Printf("%d. %s\n", i+1, u)
		}
		fmt.Printf("Query executed in %s.\n", time.Since(start))
	}
	return scanner.Err()
}
