package fwversion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const versionHeader = `/* Firmware version, updated by fwbump. */
#ifndef VERSION_H
#define VERSION_H

    #define FW_MAJOR_VERSION (2)
    #define FW_MINOR_VERSION (5)
    #define FW_VERSION_VERSION (24090)
    #define FW_REVISION_VERSION (3)

#endif
`

// day90 is 2024-03-30, day-of-year 090.
var day90 = time.Date(2024, 3, 30, 10, 0, 0, 0, time.Local)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(n int) *int {
	return &n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeHeader(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "version.h")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestRewrite_SameDay(t *testing.T) {
	path := writeHeader(t, versionHeader)

	res, err := Rewrite(path, Options{Now: clock(day90), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	if got := res.Version.String(); got != "2.5.24090.4" {
		t.Errorf("Version = %q, want 2.5.24090.4", got)
	}
	if !res.SameDay {
		t.Error("Expected SameDay to be true")
	}
	if res.Path != path {
		t.Errorf("Path = %q, want %q", res.Path, path)
	}

	content := readFile(t, path)
	if !strings.Contains(content, "    #define FW_REVISION_VERSION (4)\n") {
		t.Errorf("Revision line not bumped:\n%s", content)
	}
	if _, err := os.Stat(path + TempSuffix); !os.IsNotExist(err) {
		t.Error("Temp file should not remain after rewrite")
	}
}

func TestRewrite_NewDayResetsRevision(t *testing.T) {
	path := writeHeader(t, versionHeader)
	nextDay := day90.AddDate(0, 0, 1)

	res, err := Rewrite(path, Options{Now: clock(nextDay), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	if got := res.Version.String(); got != "2.5.24091.0" {
		t.Errorf("Version = %q, want 2.5.24091.0", got)
	}
	if res.SameDay {
		t.Error("Expected SameDay to be false")
	}

	content := readFile(t, path)
	if !strings.Contains(content, "    #define FW_VERSION_VERSION (24091)\n") {
		t.Errorf("Date line not rewritten:\n%s", content)
	}
	if !strings.Contains(content, "    #define FW_REVISION_VERSION (0)\n") {
		t.Errorf("Revision line not reset:\n%s", content)
	}
}

func TestRewrite_ConsecutiveRuns(t *testing.T) {
	path := writeHeader(t, versionHeader)
	firstDay := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	opts := Options{Now: clock(firstDay), Logger: quietLogger()}

	want := []string{"2.5.25152.0", "2.5.25152.1", "2.5.25152.2"}
	for i, w := range want {
		res, err := Rewrite(path, opts)
		if err != nil {
			t.Fatalf("run %d: Rewrite() error = %v", i, err)
		}
		if got := res.Version.String(); got != w {
			t.Errorf("run %d: Version = %q, want %q", i, got, w)
		}
	}

	opts.Now = clock(firstDay.AddDate(0, 0, 1))
	res, err := Rewrite(path, opts)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got := res.Version.String(); got != "2.5.25153.0" {
		t.Errorf("Version after date change = %q, want 2.5.25153.0", got)
	}
}

func TestRewrite_Overrides(t *testing.T) {
	tests := []struct {
		name      string
		major     *int
		minor     *int
		wantMajor string
		wantMinor string
		wantVer   string
	}{
		{
			name:      "no overrides",
			wantMajor: "    #define FW_MAJOR_VERSION (2)",
			wantMinor: "    #define FW_MINOR_VERSION (5)",
			wantVer:   "2.5.24090.4",
		},
		{
			name:      "major only",
			major:     intPtr(3),
			wantMajor: "    #define FW_MAJOR_VERSION (3)",
			wantMinor: "    #define FW_MINOR_VERSION (5)",
			wantVer:   "3.5.24090.4",
		},
		{
			name:      "minor only",
			minor:     intPtr(0),
			wantMajor: "    #define FW_MAJOR_VERSION (2)",
			wantMinor: "    #define FW_MINOR_VERSION (0)",
			wantVer:   "2.0.24090.4",
		},
		{
			name:      "both",
			major:     intPtr(10),
			minor:     intPtr(11),
			wantMajor: "    #define FW_MAJOR_VERSION (10)",
			wantMinor: "    #define FW_MINOR_VERSION (11)",
			wantVer:   "10.11.24090.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHeader(t, versionHeader)

			res, err := Rewrite(path, Options{
				Major:  tt.major,
				Minor:  tt.minor,
				Now:    clock(day90),
				Logger: quietLogger(),
			})
			if err != nil {
				t.Fatalf("Rewrite() error = %v", err)
			}
			if got := res.Version.String(); got != tt.wantVer {
				t.Errorf("Version = %q, want %q", got, tt.wantVer)
			}

			lines := strings.Split(readFile(t, path), "\n")
			if lines[4] != tt.wantMajor {
				t.Errorf("major line = %q, want %q", lines[4], tt.wantMajor)
			}
			if lines[5] != tt.wantMinor {
				t.Errorf("minor line = %q, want %q", lines[5], tt.wantMinor)
			}

			v, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if v.String() != tt.wantVer {
				t.Errorf("Read() = %q, want %q", v.String(), tt.wantVer)
			}
		})
	}
}

func TestRewrite_PreservesNonMarkerLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unix line endings", versionHeader},
		{"windows line endings", strings.ReplaceAll(versionHeader, "\n", "\r\n")},
		{"no trailing newline", strings.TrimSuffix(versionHeader, "\n")},
		{"tabs and trailing spaces", "\tint x;  \n" + versionHeader + "   \n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHeader(t, tt.content)

			if _, err := Rewrite(path, Options{Now: clock(day90), Logger: quietLogger()}); err != nil {
				t.Fatalf("Rewrite() error = %v", err)
			}

			before := strings.SplitAfter(tt.content, "\n")
			after := strings.SplitAfter(readFile(t, path), "\n")
			if len(before) != len(after) {
				t.Fatalf("line count changed: %d -> %d", len(before), len(after))
			}
			for i := range before {
				if Classify(before[i]) != MarkerNone {
					term := before[i][len(strings.TrimRight(before[i], "\r\n")):]
					if !strings.HasSuffix(after[i], term) {
						t.Errorf("line %d terminator changed: %q -> %q", i+1, before[i], after[i])
					}
					continue
				}
				if before[i] != after[i] {
					t.Errorf("line %d changed: %q -> %q", i+1, before[i], after[i])
				}
			}
		})
	}
}

func TestRewrite_MalformedMarker(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
	}{
		{
			name:    "major without parentheses",
			content: strings.Replace(versionHeader, "FW_MAJOR_VERSION (2)", "FW_MAJOR_VERSION 2", 1),
		},
		{
			name:    "minor not a number",
			content: strings.Replace(versionHeader, "FW_MINOR_VERSION (5)", "FW_MINOR_VERSION (five)", 1),
		},
		{
			name:    "revision unparsable on same day",
			content: strings.Replace(versionHeader, "FW_REVISION_VERSION (3)", "FW_REVISION_VERSION ()", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHeader(t, tt.content)
			opts := tt.opts
			opts.Now = clock(day90)
			opts.Logger = quietLogger()

			_, err := Rewrite(path, opts)
			if err == nil {
				t.Fatal("Expected error for malformed marker")
			}
			if !errors.Is(err, ErrMalformedMarker) {
				t.Errorf("Expected ErrMalformedMarker, got %v", err)
			}
			var merr *MarkerError
			if !errors.As(err, &merr) {
				t.Errorf("Expected *MarkerError, got %T", err)
			}

			if got := readFile(t, path); got != tt.content {
				t.Error("Original file should be untouched on error")
			}
			if _, err := os.Stat(path + TempSuffix); !os.IsNotExist(err) {
				t.Error("Temp file should be removed on error")
			}
		})
	}
}

func TestRewrite_MalformedMarkerIgnoredWhenOverridden(t *testing.T) {
	content := strings.Replace(versionHeader, "FW_MAJOR_VERSION (2)", "FW_MAJOR_VERSION", 1)
	path := writeHeader(t, content)

	res, err := Rewrite(path, Options{Major: intPtr(4), Now: clock(day90), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if res.Version.Major != 4 {
		t.Errorf("Major = %d, want 4", res.Version.Major)
	}
}

func TestRewrite_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.h")

	_, err := Rewrite(path, Options{Now: clock(day90), Logger: quietLogger()})
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
	if _, err := os.Stat(path + TempSuffix); !os.IsNotExist(err) {
		t.Error("Temp file should not be created for a missing file")
	}
}

func TestRewrite_DryRun(t *testing.T) {
	path := writeHeader(t, versionHeader)

	res, err := Rewrite(path, Options{DryRun: true, Now: clock(day90), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got := res.Version.String(); got != "2.5.24090.4" {
		t.Errorf("Version = %q, want 2.5.24090.4", got)
	}
	if got := readFile(t, path); got != versionHeader {
		t.Error("Dry run must not modify the file")
	}
	if _, err := os.Stat(path + TempSuffix); !os.IsNotExist(err) {
		t.Error("Dry run must not create a temp file")
	}
}

func TestRewrite_PreservesFileMode(t *testing.T) {
	path := writeHeader(t, versionHeader)
	if err := os.Chmod(path, 0600); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}

	if _, err := Rewrite(path, Options{Now: clock(day90), Logger: quietLogger()}); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestProcess_LegacyRevisionFallback(t *testing.T) {
	var out bytes.Buffer
	res, err := Process(strings.NewReader(versionHeader), &out, "24091", Options{
		LegacyRevisionFallback: true,
		Logger:                 quietLogger(),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// The minor marker is scanned last, so its value becomes the revision.
	if got := res.Version.String(); got != "2.5.24091.5" {
		t.Errorf("Version = %q, want 2.5.24091.5", got)
	}
	if !strings.Contains(out.String(), "    #define FW_REVISION_VERSION (5)\n") {
		t.Errorf("Revision line should carry the legacy value:\n%s", out.String())
	}
}

func TestProcess_DuplicateMarkersLastWins(t *testing.T) {
	content := versionHeader + "    #define FW_MAJOR_VERSION (7)\n"
	var out bytes.Buffer

	res, err := Process(strings.NewReader(content), &out, "24090", Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Version.Major != 7 {
		t.Errorf("Major = %d, want 7", res.Version.Major)
	}
}

func TestProcess_RevisionBeforeDate(t *testing.T) {
	content := "    #define FW_REVISION_VERSION (3)\n" +
		"    #define FW_VERSION_VERSION (24090)\n"
	var out bytes.Buffer

	res, err := Process(strings.NewReader(content), &out, "24090", Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// sameDay is only known once the date marker has been scanned.
	if res.Version.Revision != 0 {
		t.Errorf("Revision = %d, want 0", res.Version.Revision)
	}
	if !res.SameDay {
		t.Error("Expected SameDay to be true after the date marker")
	}
}

func TestProcess_MissingMarkers(t *testing.T) {
	content := "int main(void) { return 0; }\n"
	var out bytes.Buffer

	res, err := Process(strings.NewReader(content), &out, "24090", Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.String() != content {
		t.Errorf("Output = %q, want input unchanged", out.String())
	}
	if len(res.Missing) != 4 {
		t.Errorf("Missing = %v, want all four markers", res.Missing)
	}
	if res.Changed {
		t.Error("Expected Changed to be false")
	}
	if got := res.Version.String(); got != "0.0.24090.0" {
		t.Errorf("Version = %q, want 0.0.24090.0", got)
	}
}

func TestProcess_Changed(t *testing.T) {
	var out bytes.Buffer
	res, err := Process(strings.NewReader(versionHeader), &out, "24090", Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Changed {
		t.Error("Expected Changed to be true when the revision is bumped")
	}
}
