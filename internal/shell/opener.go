package shell

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// DefaultOpenerCommand hands URLs to the desktop's preferred application.
const DefaultOpenerCommand = "xdg-open"

// Opener asks the OS to open a URL outside the shell.
type Opener interface {
	Open(rawURL string) error
}

// CommandOpener runs an external command with the URL as its only argument.
type CommandOpener struct {
	command string
	logger  *slog.Logger
}

// NewCommandOpener returns an opener that runs command.
func NewCommandOpener(command string, logger *slog.Logger) *CommandOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandOpener{command: command, logger: logger}
}

// Open starts the command without waiting for it.
func (o *CommandOpener) Open(rawURL string) error {
	cmd := exec.Command(o.command, rawURL)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", o.command, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			o.logger.Warn("external opener failed", "command", o.command, "url", rawURL, "error", err)
		}
	}()
	return nil
}
