package speedometer

import (
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// Launcher opens a URL outside of the program.
type Launcher interface {
	Open(url string) error
}

// CommandLauncher opens URLs with the desktop's default handler.
type CommandLauncher struct {
	logger *zap.Logger
}

// NewCommandLauncher creates a launcher for the current OS.
func NewCommandLauncher(logger *zap.Logger) *CommandLauncher {
	return &CommandLauncher{
		logger: logger,
	}
}

// Open runs the OS opener and waits for it to exit.
func (cl *CommandLauncher) Open(url string) error {
	name, args := openCommand(runtime.GOOS, url)

	cl.logger.Debug("opening url",
		zap.String("url", url),
		zap.String("command", name),
	)

	if err := exec.Command(name, args...).Run(); err != nil {
		cl.logger.Warn("error opening url",
			zap.String("url", url),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	}
	return "xdg-open", []string{url}
}
