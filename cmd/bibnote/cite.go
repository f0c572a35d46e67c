package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/clipboard"
)

var (
	citeAlt  bool
	citeCopy bool
)

func init() {
	citeCmd.Flags().BoolVar(&citeAlt, "alt", false, "Use the alternative citation template")
	citeCmd.Flags().BoolVar(&citeCopy, "copy", false, "Copy the citation to the clipboard")
	rootCmd.AddCommand(citeCmd)
}

var citeCmd = &cobra.Command{
	Use:   "cite <citekey>",
	Short: "Render an inline citation for a citekey",
	Long: `Render an inline citation for a citekey using the configured
citation template (or the alternative template with --alt).

Examples:
  bibnote cite smith2020
  bibnote cite smith2020 --alt --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

func runCite(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	vars := lookupVars(app, args[0])
	text, err := app.Resolver.Citation(vars, citeAlt)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	return emitText(text, citeCopy)
}

// emitText delivers rendered text to the clipboard or stdout.
func emitText(text string, toClipboard bool) error {
	if toClipboard {
		if err := clipboard.Copy(text); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println("Copied to clipboard")
		} else {
			outputJSON(StatusResponse{Status: "copied"})
		}
		return nil
	}

	if humanOutput {
		fmt.Println(text)
		return nil
	}
	return outputJSON(map[string]string{"text": text})
}
