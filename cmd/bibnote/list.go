package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/library"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries in the library",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// ListEntry is one row in the list command output.
type ListEntry struct {
	Citekey string `json:"citekey"`
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Venue   string `json:"venue,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	lib := app.Manager.Library()
	entries := lib.Entries()

	if humanOutput {
		for _, e := range entries {
			fmt.Printf("%-24s %s (%d)\n", e.Citekey, truncateTitle(e.Title), e.Year)
		}
		fmt.Printf("\n%d entries\n", lib.Size())
		return nil
	}

	rows := make([]ListEntry, len(entries))
	for i, e := range entries {
		rows[i] = ListEntry{Citekey: e.Citekey, Title: e.Title, Year: e.Year, Venue: e.Venue}
	}
	return outputJSON(rows)
}

// ListTitleMaxLen bounds titles in human list output.
const ListTitleMaxLen = 60

func truncateTitle(s string) string {
	if len(s) <= ListTitleMaxLen {
		return s
	}
	return s[:ListTitleMaxLen-3] + "..."
}

// lookupVars fetches projection variables for a citekey or exits.
func lookupVars(app *appContext, citekey string) library.Variables {
	vars, err := app.Manager.Projection(citekey)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return vars
}
