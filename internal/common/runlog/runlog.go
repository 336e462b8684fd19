// Package runlog collects the operator-facing trace of a single diagnostic
// run. Every entry carries a level chosen at the call site, so consumers
// never have to classify log text after the fact. In CLI mode entries are
// written to a writer as they are added; in web mode the buffered entries
// are rendered into the response at the end of the request.
package runlog

import (
	"fmt"
	"io"
	"time"
)

// Level classifies a run log entry.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

// String returns the upper-case level name used in rendered output.
func (l Level) String() string {
	switch l {
	case Success:
		return "SUCCESS"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Class returns the CSS class the web log panel uses for this level.
// Info entries carry no class.
func (l Level) Class() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return ""
	}
}

// Entry is one timestamped line of the run trace. Entries are never mutated
// after being appended.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Stamp formats the entry timestamp the way the log panel displays it.
func (e Entry) Stamp() string {
	return e.Time.Format("[2006-01-02 15:04:05]")
}

// Log is an append-only sequence of entries scoped to one run: a process
// invocation in CLI mode, a single request in web mode. It is not safe for
// concurrent use; each run owns its Log.
type Log struct {
	entries []Entry
	out     io.Writer
	now     func() time.Time
}

// New returns a Log that echoes each entry to out as it is appended.
// Pass nil to buffer only (web mode).
func New(out io.Writer) *Log {
	return &Log{out: out, now: time.Now}
}

func (l *Log) append(level Level, format string, args ...any) {
	e := Entry{
		Time:    l.now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	l.entries = append(l.entries, e)
	if l.out != nil {
		if level == Info {
			fmt.Fprintf(l.out, "%s %s\n", e.Stamp(), e.Message)
		} else {
			fmt.Fprintf(l.out, "%s %s: %s\n", e.Stamp(), level, e.Message)
		}
	}
}

// Infof appends an informational entry.
func (l *Log) Infof(format string, args ...any) { l.append(Info, format, args...) }

// Successf appends a success entry.
func (l *Log) Successf(format string, args ...any) { l.append(Success, format, args...) }

// Warningf appends a warning entry.
func (l *Log) Warningf(format string, args ...any) { l.append(Warning, format, args...) }

// Errorf appends an error entry.
func (l *Log) Errorf(format string, args ...any) { l.append(Error, format, args...) }

// Entries returns the collected entries in append order.
func (l *Log) Entries() []Entry {
	return l.entries
}
