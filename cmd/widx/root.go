package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "widx",
	Short: "widx builds and queries an inverted index over a corpus of HTML web documents",
	Long: `widx is an inverted-index builder and TF-IDF/boolean query engine
over a corpus of HTML web documents.

	widx build    construct partial indexes and merge them into a sealed index
	widx query    interactively run boolean and ranked queries against a sealed index
	widx check    verify the structural invariants of a sealed index`,
}

// Execute runs the root command and exits non-zero on any fatal error,
// matching cindex's own exit-code discipline.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
