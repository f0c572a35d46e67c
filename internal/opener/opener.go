// Package opener hands files and reference-manager URIs to the host
// system's opener.
package opener

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// OpenFile opens a local file with the system opener. The file must
// exist; notes are created elsewhere before being opened.
func OpenFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("checking file: %w", err)
	}
	return open(path)
}

// OpenURI opens a URI (zotero://..., https://doi.org/...) with the
// system opener.
func OpenURI(uri string) error {
	if !strings.Contains(uri, "://") {
		return fmt.Errorf("not a URI: %s", uri)
	}
	return open(uri)
}

func open(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
