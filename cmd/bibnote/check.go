package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/bib"
	"github.com/matsen/bibnote/internal/pdf"
)

var checkDOI bool

func init() {
	checkCmd.Flags().BoolVar(&checkDOI, "doi", false, "Cross-check entry DOIs against DOIs extracted from attachment PDFs")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit attachment paths recorded in the library",
	Long: `Audit the attachment paths recorded in the library: report
attachments that do not exist on disk, and with --doi compare each
entry's DOI against a DOI extracted from its primary PDF.

Examples:
  bibnote check
  bibnote check --doi`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckProblem is one finding from the check command.
type CheckProblem struct {
	Citekey string `json:"citekey"`
	Kind    string `json:"kind"` // missing-attachment or doi-mismatch
	Path    string `json:"path,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Entries     int            `json:"entries"`
	Attachments int            `json:"attachments"`
	Problems    []CheckProblem `json:"problems"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(nil)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	if err := app.EnsureLibrary(cmd.Context()); err != nil {
		exitWithError(ExitLoadError, "%v", err)
	}

	result := CheckResult{Problems: []CheckProblem{}}
	for _, entry := range app.Manager.Library().Entries() {
		result.Entries++
		for _, path := range entry.AttachmentPaths {
			result.Attachments++
			if _, err := os.Stat(path); err != nil {
				result.Problems = append(result.Problems, CheckProblem{
					Citekey: entry.Citekey,
					Kind:    "missing-attachment",
					Path:    path,
				})
			}
		}
		if checkDOI {
			if p := checkEntryDOI(entry); p != nil {
				result.Problems = append(result.Problems, *p)
			}
		}
	}

	if humanOutput {
		printCheckHuman(result)
	} else {
		outputJSON(result)
	}
	if len(result.Problems) > 0 {
		os.Exit(ExitError)
	}
	return nil
}

// checkEntryDOI compares the entry DOI with one extracted from the
// primary PDF attachment. Entries without a readable PDF are skipped.
func checkEntryDOI(entry *bib.Entry) *CheckProblem {
	path := entry.PrimaryAttachment()
	if path == "" || filepath.Ext(path) != ".pdf" {
		return nil
	}
	extracted, err := pdf.ExtractDOI(path)
	if err != nil || extracted == "" {
		return nil
	}
	if entry.DOI == "" {
		return &CheckProblem{
			Citekey: entry.Citekey,
			Kind:    "doi-mismatch",
			Path:    path,
			Detail:  fmt.Sprintf("entry has no DOI, PDF contains %s", extracted),
		}
	}
	if bib.NormalizeDOI(entry.DOI) != bib.NormalizeDOI(extracted) {
		return &CheckProblem{
			Citekey: entry.Citekey,
			Kind:    "doi-mismatch",
			Path:    path,
			Detail:  fmt.Sprintf("entry DOI %s, PDF contains %s", entry.DOI, extracted),
		}
	}
	return nil
}

func printCheckHuman(result CheckResult) {
	for _, p := range result.Problems {
		switch p.Kind {
		case "missing-attachment":
			fmt.Printf("%s: missing attachment %s\n", p.Citekey, p.Path)
		case "doi-mismatch":
			fmt.Printf("%s: %s\n", p.Citekey, p.Detail)
		}
	}
	fmt.Printf("\nChecked %d entries, %d attachments, %d problems\n",
		result.Entries, result.Attachments, len(result.Problems))
}
