// Package clipboard provides cross-platform clipboard access via shell
// commands, used when inserting citations outside an editor.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard helper can be
// found on this system.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// linuxHelpers lists clipboard commands probed on Linux, in order.
// wl-copy covers Wayland sessions where the X tools are absent.
var linuxHelpers = []struct {
	name string
	args []string
}{
	{"wl-copy", nil},
	{"xclip", []string{"-selection", "clipboard"}},
	{"xsel", []string{"--clipboard", "--input"}},
}

// IsAvailable checks if clipboard functionality is available.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("pbcopy")
		return err == nil
	case "linux":
		for _, h := range linuxHelpers {
			if _, err := exec.LookPath(h.name); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if no helper is found.
func Copy(text string) error {
	cmd, err := copyCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func copyCommand() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy"), nil
	case "linux":
		for _, h := range linuxHelpers {
			if _, err := exec.LookPath(h.name); err == nil {
				return exec.Command(h.name, h.args...), nil
			}
		}
		return nil, ErrClipboardUnavailable
	default:
		return nil, ErrClipboardUnavailable
	}
}
