package fwversion

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingMarker is returned by Read when the file lacks one of the
// four markers.
var ErrMissingMarker = errors.New("missing marker")

// Read returns the version currently recorded in the file at path without
// modifying it. The date code is returned as written.
func Read(path string) (Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return Version{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var v Version
	seen := make(map[Marker]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		m := Classify(line)
		if m == MarkerNone {
			continue
		}
		seen[m] = true

		if m == MarkerDate {
			code, ok := parenValue(line)
			if !ok {
				return Version{}, fmt.Errorf("%s: %w", path, &MarkerError{Marker: m, Line: lineNo, Text: line})
			}
			v.DateCode = code
			continue
		}

		n, err := parseInt(m, lineNo, line)
		if err != nil {
			return Version{}, fmt.Errorf("%s: %w", path, err)
		}
		switch m {
		case MarkerMajor:
			v.Major = n
		case MarkerMinor:
			v.Minor = n
		case MarkerRevision:
			v.Revision = n
		}
	}
	if err := scanner.Err(); err != nil {
		return Version{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var missing []string
	for _, m := range markerOrder {
		if !seen[m] {
			missing = append(missing, m.Name())
		}
	}
	if len(missing) > 0 {
		return v, fmt.Errorf("%s: %w: %s", path, ErrMissingMarker, strings.Join(missing, ", "))
	}

	return v, nil
}
