package main

import (
	"github.com/spf13/cobra"
)

var linkCopy bool

func init() {
	linkCmd.Flags().BoolVar(&linkCopy, "copy", false, "Copy the link to the clipboard")
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <citekey>",
	Short: "Render a Markdown link to the entry in the reference manager",
	Args:  cobra.ExactArgs(1),
	RunE:  runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	vars := lookupVars(app, args[0])
	text, err := app.Resolver.MarkdownLink(vars)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	return emitText(text, linkCopy)
}
