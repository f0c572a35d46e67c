package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing vault, invalid paths, bad format)
	ExitLoadError   = 3 // Load-cycle error (unreadable export, parse failure)
	ExitNoteError   = 4 // Literature note I/O error
)
