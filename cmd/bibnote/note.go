package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/notes"
	"github.com/matsen/bibnote/internal/opener"
)

var (
	noteOpen   bool
	noteStdout bool
)

func init() {
	noteCmd.Flags().BoolVar(&noteOpen, "open", false, "Open the note after resolving it")
	noteCmd.Flags().BoolVar(&noteStdout, "stdout", false, "Print the rendered note content without touching the vault")
	rootCmd.AddCommand(noteCmd)
}

var noteCmd = &cobra.Command{
	Use:   "note <citekey>",
	Short: "Locate or create the literature note for a citekey",
	Long: `Locate the literature note for a citekey, creating it from the
note template if it does not exist yet. Path resolution is
case-insensitive against existing files, so repeated calls always
return the same note.

Examples:
  bibnote note smith2020
  bibnote note smith2020 --open
  bibnote note smith2020 --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runNote,
}

// NoteResult is the response for the note command.
type NoteResult struct {
	Status  string `json:"status"` // created or exists
	Path    string `json:"path"`
	Citekey string `json:"citekey"`
}

func runNote(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	vars := lookupVars(app, args[0])

	if noteStdout {
		content, err := app.Resolver.RenderContent(vars)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		fmt.Print(content)
		return nil
	}

	path, created, err := app.Resolver.Resolve(vars)
	if err != nil {
		if errors.Is(err, notes.ErrNoteAccess) {
			exitWithError(ExitNoteError, "%v", err)
		}
		exitWithError(ExitError, "%v", err)
	}

	if noteOpen {
		if err := opener.OpenFile(path); err != nil {
			exitWithError(ExitError, "opening note: %v", err)
		}
	}

	status := "exists"
	if created {
		status = "created"
	}
	if humanOutput {
		fmt.Printf("%s: %s\n", status, path)
	} else {
		outputJSON(NoteResult{Status: status, Path: path, Citekey: vars.Citekey})
	}
	return nil
}
