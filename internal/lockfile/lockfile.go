// Package lockfile implements the daemon's single-instance PID-file guard:
// acquire on start, probe any existing holder with a zero signal, and
// release on every exit path including panics.
package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned by Acquire when a live process already
// holds the lock.
var ErrAlreadyRunning = fmt.Errorf("lockfile: another instance is already running")

// Lock guards a PID file for the lifetime of one daemon process.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the PID lock at path. If the file exists and names a PID
// that is still alive (probed with signal 0), it returns
// ErrAlreadyRunning. Otherwise it overwrites the file with this process's
// PID and returns a held Lock.
func Acquire(path string) (*Lock, error) {
	if data, err := os.ReadFile(path); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && pid > 0 {
			if processAlive(pid) {
				return nil, ErrAlreadyRunning
			}
		}
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: flock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("lockfile: write pid: %w", err)
	}

	return &Lock{path: path, fl: fl}, nil
}

// Release unlocks and removes the PID file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	_ = l.fl.Unlock()
	_ = os.Remove(l.path)
}

func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
