package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFileName is the name of the PID file inside the data directory
const PIDFileName = "clipcat.pid"

// ErrAlreadyRunning is returned when another live process owns the PID file
var ErrAlreadyRunning = errors.New("clipcat is already running")

// pidFile manages the PID file guarding the single writer process
type pidFile struct {
	path string
}

// newPIDFile creates a PID file manager in dir
func newPIDFile(dir string) (*pidFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}
	return &pidFile{path: filepath.Join(dir, PIDFileName)}, nil
}

// acquire claims the PID file for this process. A file left by a dead
// process is taken over.
func (p *pidFile) acquire() error {
	pid, err := p.read()
	if err != nil {
		return err
	}
	if pid != 0 && pid != os.Getpid() && isRunning(pid) {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return p.write()
}

// write writes the current process PID to the PID file
func (p *pidFile) write() error {
	pid := os.Getpid()
	return os.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0o644)
}

// read reads the PID from the PID file
func (p *pidFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}

	return pid, nil
}

// remove removes the PID file if it still belongs to this process
func (p *pidFile) remove() error {
	if pid, err := p.read(); err == nil && pid != 0 && pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Running reports the PID of a live server recorded in dir
func Running(dir string) (int, bool) {
	p := &pidFile{path: filepath.Join(dir, PIDFileName)}
	pid, err := p.read()
	if err != nil || pid == 0 || pid == os.Getpid() {
		return 0, false
	}
	return pid, isRunning(pid)
}

// StopRunning signals the server recorded in dir to shut down. It returns the
// PID that was signalled, or 0 when no server is running.
func StopRunning(dir string) (int, error) {
	p, err := newPIDFile(dir)
	if err != nil {
		return 0, err
	}
	pid, err := p.read()
	if err != nil {
		return 0, err
	}
	if pid == 0 || !isRunning(pid) {
		return 0, p.remove()
	}
	if err := killProcess(pid); err != nil {
		return 0, err
	}
	return pid, nil
}

// isRunning checks if a process with the given PID is running
func isRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix systems, FindProcess always succeeds, so we need to check if the process actually exists
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// killProcess attempts to kill a process with the given PID
func killProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	// First try SIGTERM for graceful shutdown
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	return nil
}
