// Package main provides the bibnote CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibnote",
	Short: "Literature notes and citations from a bibliography export",
	Long: `bibnote turns a BibLaTeX or CSL-JSON bibliography export into a
queryable library keyed by citation key, and materializes Markdown
literature notes and citation strings from user-defined templates.

The export file stays the source of truth: bibnote re-parses it on
demand (or continuously with 'bibnote watch') and never writes to it.
All commands output JSON by default for easy scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
