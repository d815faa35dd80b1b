// Package browser opens Telegram post links in the user's opener.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/tgscope/internal/debuglog"
	"github.com/pders01/tgscope/internal/validation"
)

// Launcher starts an external application for a post URL.
type Launcher struct {
	opener string
	start  func(cmd *exec.Cmd) error
}

// NewLauncher returns a launcher using opener, or the first platform
// opener found on PATH when opener is empty.
func NewLauncher(opener string) *Launcher {
	if opener == "" {
		opener = findCommand(platformOpeners()...)
	}
	return &Launcher{opener: opener, start: startDetached}
}

// Opener is the command the launcher runs.
func (l *Launcher) Opener() string {
	return l.opener
}

// Open validates rawURL as a Telegram post link and hands it to the opener.
func (l *Launcher) Open(rawURL string) error {
	u, err := validation.PostURL(rawURL)
	if err != nil {
		return err
	}
	if l.opener == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd := command(l.opener, u)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	debuglog.Debugf("Opened %s with %s", u, l.opener)
	return nil
}

func command(opener, url string) *exec.Cmd {
	// start is a cmd.exe builtin; the empty argument is the window title.
	if opener == "start" {
		return exec.Command("cmd", "/c", "start", "", url)
	}
	return exec.Command(opener, url)
}

// startDetached starts GUI applications without waiting on them.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpeners() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"start"}
	default:
		return []string{"xdg-open", "gio", "sensible-browser", "firefox"}
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if cmd == "start" {
			return cmd
		}
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
