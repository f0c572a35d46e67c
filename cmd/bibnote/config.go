package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/bibnote/internal/bib"
	"github.com/matsen/bibnote/internal/config"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage vault configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a bibnote vault in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the vault configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Keys: library_path, library_format, note_folder, debounce_ms,
title_template, note_template, citation_template, alt_citation_template.

Examples:
  bibnote config set library_path ~/exports/library.json
  bibnote config set library_format csl-json
  bibnote config set citation_template '[[@{{.Citekey}}]]'`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	if config.IsVault(cwd) {
		exitWithError(ExitConfigError, "already a bibnote vault: %s", cwd)
	}

	if err := os.MkdirAll(config.BibnotePath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.BibnoteDir, err)
	}
	if err := config.Default().Save(cwd); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized bibnote vault in %s\n", cwd)
		fmt.Println("Next: bibnote config set library_path /path/to/export")
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.ConfigPath(cwd)})
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	root, err := findVaultRoot()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("vault:           %s\n", root)
		fmt.Printf("library_path:    %s\n", cfg.LibraryPath)
		fmt.Printf("library_format:  %s\n", cfg.LibraryFormat)
		fmt.Printf("note_folder:     %s\n", cfg.NoteFolder)
		fmt.Printf("debounce_ms:     %d\n", cfg.DebounceMs)
		return nil
	}
	return outputJSON(cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	root, err := findVaultRoot()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	key, value := args[0], args[1]
	switch key {
	case "library_path":
		cfg.LibraryPath = value
	case "library_format":
		if _, err := bib.ParseFormat(value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.LibraryFormat = value
	case "note_folder":
		cfg.NoteFolder = value
	case "debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			exitWithError(ExitConfigError, "debounce_ms must be a positive integer, got %q", value)
		}
		cfg.DebounceMs = n
	case "title_template":
		cfg.TitleTemplate = value
	case "note_template":
		cfg.NoteTemplate = value
	case "citation_template":
		cfg.CitationTemplate = value
	case "alt_citation_template":
		cfg.AltCitationTemplate = value
	default:
		exitWithError(ExitConfigError, "unknown config key: %s", key)
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("%s = %s\n", key, value)
	} else {
		outputJSON(map[string]string{"status": "updated", "key": key, "value": value})
	}
	return nil
}
