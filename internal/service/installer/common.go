package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/agentfoundry/agent-setup/internal/logger"
)

const (
	// MarkerFilename marks that an installation is running right now to
	// avoid parallel runs against the same install root.
	MarkerFilename = "agent-setup-marker.bin"

	// markerLifetime is the period after which a stale run marker is ignored.
	markerLifetime = 30 * time.Second

	// baseInstallerExecutable is the binary name; the platform helper
	// appends the extension when needed.
	baseInstallerExecutable = "agent-setup"
)

// IsInstallerRunningNow checks presence of a marker file under the install
// root and attempts recovery if it looks stale.
func IsInstallerRunningNow(ctx context.Context, installRoot string) bool {
	markerPath := filepath.Join(installRoot, MarkerFilename)

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, attempting cleanup")

		if err = terminateProcessByName(installerExecutable()); err != nil {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// installerExecutable returns the platform-specific binary name.
func installerExecutable() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return baseInstallerExecutable + ".exe"
	}

	return baseInstallerExecutable
}
