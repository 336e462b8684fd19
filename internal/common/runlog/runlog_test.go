package runlog

import (
	"strings"
	"testing"
	"time"
)

func TestLevelClass(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{Info, ""},
		{Success, "success"},
		{Warning, "warning"},
		{Error, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.Class(); got != tt.want {
				t.Errorf("Class() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLog_BufferedEntries(t *testing.T) {
	l := New(nil)
	l.Infof("starting %s test", "bind")
	l.Errorf("bind failed: %v", "invalid credentials")
	l.Successf("authenticated")

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() returned %d entries, want 3", len(entries))
	}
	if entries[0].Message != "starting bind test" || entries[0].Level != Info {
		t.Errorf("first entry = %+v, want info 'starting bind test'", entries[0])
	}
	if entries[1].Level != Error {
		t.Errorf("second entry level = %v, want Error", entries[1].Level)
	}
	if entries[2].Level != Success {
		t.Errorf("third entry level = %v, want Success", entries[2].Level)
	}
}

func TestLog_ImmediateOutput(t *testing.T) {
	var buf strings.Builder
	l := New(&buf)
	l.now = func() time.Time {
		return time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)
	}

	l.Infof("config loaded")
	l.Warningf("sender not in allow-list")

	out := buf.String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("output has %d lines, want 2: %q", len(lines), out)
	}
	if lines[0] != "[2026-08-24 10:30:00] config loaded" {
		t.Errorf("info line = %q", lines[0])
	}
	if lines[1] != "[2026-08-24 10:30:00] WARNING: sender not in allow-list" {
		t.Errorf("warning line = %q", lines[1])
	}
}

func TestEntry_Stamp(t *testing.T) {
	e := Entry{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if got := e.Stamp(); got != "[2026-01-02 03:04:05]" {
		t.Errorf("Stamp() = %q", got)
	}
}
