package fwversion

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// TempSuffix is appended to the target path to name the scratch file that
// replaces it.
const TempSuffix = ".tmp"

// Options controls a rewrite. The zero value keeps major and minor as found
// in the file and uses the wall clock.
type Options struct {
	// Major forces the major version when non-nil.
	Major *int
	// Minor forces the minor version when non-nil.
	Minor *int
	// Now returns the time the date code is derived from. Defaults to
	// time.Now.
	Now func() time.Time
	// DryRun computes the new version without touching the file.
	DryRun bool
	// LegacyRevisionFallback reproduces the older tool, where a carried
	// over major or minor value became the revision on a new day.
	LegacyRevisionFallback bool
	Logger                 *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Result is the outcome of a rewrite.
type Result struct {
	Version Version
	// SameDay is true when the file already carried today's date code.
	SameDay bool
	// Changed is true when at least one marker line was altered.
	Changed bool
	Path    string
	// Missing lists markers that were not found in the file.
	Missing []Marker
}

// scanState is threaded through the line loop.
type scanState struct {
	lineNo              int
	sameDay             bool
	carriedMajor        int
	carriedMinor        int
	provisionalRevision int
	revision            int
	seen                map[Marker]bool
	changed             bool
}

// Process streams r to w, rewriting the four marker lines for dateCode.
// Non-marker lines and all line terminators are copied unchanged.
func Process(r io.Reader, w io.Writer, dateCode string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	st := &scanState{seen: make(map[Marker]bool)}
	br := bufio.NewReader(r)

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return Result{}, fmt.Errorf("failed to read line %d: %w", st.lineNo+1, readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		st.lineNo++

		out, err := st.processLine(line, dateCode, opts)
		if err != nil {
			return Result{}, err
		}
		if _, err := io.WriteString(w, out); err != nil {
			return Result{}, fmt.Errorf("failed to write line %d: %w", st.lineNo, err)
		}
		if readErr != nil {
			break
		}
	}

	res := Result{
		Version: Version{
			Major:    st.carriedMajor,
			Minor:    st.carriedMinor,
			DateCode: dateCode,
			Revision: st.revision,
		},
		SameDay: st.sameDay,
		Changed: st.changed,
	}
	if opts.Major != nil {
		res.Version.Major = *opts.Major
	}
	if opts.Minor != nil {
		res.Version.Minor = *opts.Minor
	}
	if !st.seen[MarkerRevision] {
		res.Version.Revision = st.provisionalRevision
	}
	for _, m := range markerOrder {
		if !st.seen[m] {
			res.Missing = append(res.Missing, m)
			opts.Logger.Warn("marker not found", "marker", m.Name())
		}
	}

	return res, nil
}

func (st *scanState) processLine(line, dateCode string, opts Options) (string, error) {
	body, term := splitTerminator(line)
	m := Classify(body)
	if m == MarkerNone {
		return line, nil
	}
	if st.seen[m] {
		opts.Logger.Warn("duplicate marker, last one wins", "marker", m.Name(), "line", st.lineNo)
	}
	st.seen[m] = true

	var out string
	switch m {
	case MarkerMajor:
		if opts.Major != nil {
			out = m.Format(strconv.Itoa(*opts.Major))
			break
		}
		n, err := parseInt(m, st.lineNo, body)
		if err != nil {
			return "", err
		}
		st.carriedMajor = n
		if opts.LegacyRevisionFallback {
			st.provisionalRevision = n
		}
		out = body

	case MarkerMinor:
		if opts.Minor != nil {
			out = m.Format(strconv.Itoa(*opts.Minor))
			break
		}
		n, err := parseInt(m, st.lineNo, body)
		if err != nil {
			return "", err
		}
		st.carriedMinor = n
		if opts.LegacyRevisionFallback {
			st.provisionalRevision = n
		}
		out = body

	case MarkerDate:
		if existing, ok := parenValue(body); ok && existing == dateCode {
			st.sameDay = true
		}
		out = m.Format(dateCode)

	case MarkerRevision:
		st.revision = st.provisionalRevision
		if st.sameDay {
			n, err := parseInt(m, st.lineNo, body)
			if err != nil {
				return "", err
			}
			st.revision = n + 1
		}
		out = m.Format(strconv.Itoa(st.revision))
	}

	opts.Logger.Debug("marker", "name", m.Name(), "line", st.lineNo, "value", out)
	if out != body {
		st.changed = true
	}
	return out + term, nil
}

func splitTerminator(line string) (string, string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// Rewrite updates the marker lines of the file at path in place. The new
// content is written to path+TempSuffix and renamed over the original, so the
// original is never left half written. On error the original is untouched
// and the scratch file is removed.
func Rewrite(path string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	dateCode := DateCode(opts.Now())

	src, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	if opts.DryRun {
		res, err := Process(src, io.Discard, dateCode, opts)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", path, err)
		}
		res.Path = path
		return res, nil
	}

	info, err := src.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	tmpPath := path + TempSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	bw := bufio.NewWriter(tmp)
	res, err := Process(src, bw, dateCode, opts)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}

	// Release the source handle before the rename; Windows refuses to
	// replace an open file.
	_ = src.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	opts.Logger.Info("version updated", "path", path, "version", res.Version.String(), "same_day", res.SameDay)
	res.Path = path
	return res, nil
}
