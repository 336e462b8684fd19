package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CSVAudit appends one row per executed test run to a per-tool, per-day CSV
// file in the system temp directory. The audit file survives the process so
// operators can correlate repeated runs of the same check.
//
// Filename pattern: _{tool}_{action}_{date}.csv, e.g. _smtptool_send_2026-08-24.csv
type CSVAudit struct {
	writer *csv.Writer
	file   *os.File
	path   string
}

// NewCSVAudit opens (or creates) the audit file for the given tool and action.
func NewCSVAudit(tool, action string) (*CSVAudit, error) {
	name := fmt.Sprintf("_%s_%s_%s.csv", tool, action, time.Now().Format("2006-01-02"))
	path := filepath.Join(os.TempDir(), name)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open audit file: %w", err)
	}

	return &CSVAudit{
		writer: csv.NewWriter(file),
		file:   file,
		path:   path,
	}, nil
}

// Path returns the location of the audit file.
func (a *CSVAudit) Path() string {
	return a.path
}

// WriteHeader writes the column header with a Timestamp column prepended.
// Call it only when the file is new; see IsEmpty.
func (a *CSVAudit) WriteHeader(columns []string) error {
	header := append([]string{"Timestamp"}, columns...)
	if err := a.writer.Write(header); err != nil {
		return fmt.Errorf("writing audit header: %w", err)
	}
	a.writer.Flush()
	return a.writer.Error()
}

// WriteRow appends a row with the current timestamp prepended and flushes.
// One row per run keeps the buffering trivial.
func (a *CSVAudit) WriteRow(row []string) error {
	full := append([]string{time.Now().Format("2006-01-02 15:04:05")}, row...)
	if err := a.writer.Write(full); err != nil {
		return fmt.Errorf("writing audit row: %w", err)
	}
	a.writer.Flush()
	return a.writer.Error()
}

// IsEmpty reports whether the audit file has no content yet.
func (a *CSVAudit) IsEmpty() (bool, error) {
	info, err := a.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat audit file: %w", err)
	}
	return info.Size() == 0, nil
}

// Close flushes pending rows and closes the file.
func (a *CSVAudit) Close() error {
	if a.writer != nil {
		a.writer.Flush()
		if err := a.writer.Error(); err != nil {
			a.file.Close()
			return fmt.Errorf("flushing audit file: %w", err)
		}
	}
	return a.file.Close()
}
