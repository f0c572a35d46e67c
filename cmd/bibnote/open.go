package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/opener"
)

var openAttachment bool

func init() {
	openCmd.Flags().BoolVar(&openAttachment, "attachment", false, "Open the primary attachment file instead of the reference manager")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <citekey>",
	Short: "Open the entry in the reference manager or its attachment",
	Long: `Open the entry's external reference-manager URI, or with
--attachment the primary attachment file recorded in the export.

Examples:
  bibnote open smith2020
  bibnote open smith2020 --attachment`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	vars := lookupVars(app, args[0])

	target := vars.ZoteroSelectURI
	if openAttachment {
		if vars.AttachmentPath == "" {
			exitWithError(ExitError, "no attachment recorded for %s", vars.Citekey)
		}
		target = vars.AttachmentPath
		if err := opener.OpenFile(target); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	} else {
		if err := opener.OpenURI(target); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Opening: %s\n", target)
	} else {
		outputJSON(StatusResponse{Status: "opened", Path: target})
	}
	return nil
}
