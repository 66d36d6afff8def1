package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Log is an append-only newline-delimited-JSON file. Physical line order is
// append order; it does not by itself define semantic ordering between
// versions of the same logical entity (that is the caller's job).
type Log struct {
	path string
}

// OpenLog returns a Log bound to path. The file is created lazily on first
// append; reads of a missing file behave as an empty log.
func OpenLog(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes one line (raw, newline-terminated by this call) to the log
// with a buffered writer and flushes the buffer, but does not fsync.
func (l *Log) Append(line []byte) error {
	return l.appendInner(line, false)
}

// AppendDurable writes one line and fsyncs the file before returning, so a
// successful return guarantees the record survives a crash.
func (l *Log) AppendDurable(line []byte) error {
	return l.appendInner(line, true)
}

func (l *Log) appendInner(line []byte, durable bool) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(line); err != nil {
		return fmt.Errorf("write log %s: %w", l.path, err)
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write log %s: %w", l.path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush log %s: %w", l.path, err)
	}
	if durable {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("fsync log %s: %w", l.path, err)
		}
	}
	return nil
}

// ReadAll returns every line in the log, in physical append order. A
// missing log file is treated as empty, not an error.
func (l *Log) ReadAll() ([][]byte, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close()

	var lines [][]byte
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan log %s: %w", l.path, err)
	}
	return lines, nil
}

// ReadRecent returns up to limit lines from the tail of the log, without
// parsing them; callers filter by schema after reading. It reads the whole
// file and keeps the last limit lines. A limit <= 0 returns every line.
func (l *Log) ReadRecent(limit int) ([][]byte, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit >= len(all) {
		return all, nil
	}
	return all[len(all)-limit:], nil
}

// Count returns the number of lines currently in the log.
func (l *Log) Count() (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

var _ io.Writer = (*os.File)(nil)
