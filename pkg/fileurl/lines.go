package fileurl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLineRange is returned by ParseLineRange for malformed input.
var ErrInvalidLineRange = errors.New("invalid line range")

// LineRange is an optional 1-based, inclusive line selection. The zero value
// selects nothing; build a selection with Lines or ParseLineRange.
type LineRange struct {
	start int
	end   int
	set   bool
}

// NoLines is the empty selection.
var NoLines = LineRange{}

// Lines selects start..end. An end that is not after start means "no range end".
func Lines(start, end int) LineRange {
	return LineRange{start: start, end: end, set: true}
}

// ParseLineRange parses "10", "10-20", "L10-L20" or "" (no selection).
func ParseLineRange(s string) (LineRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoLines, nil
	}

	startRaw, endRaw, hasEnd := strings.Cut(s, "-")

	start, err := parseLine(startRaw)
	if err != nil {
		return NoLines, fmt.Errorf("%w %q: %w", ErrInvalidLineRange, s, err)
	}

	if !hasEnd {
		return Lines(start, start), nil
	}

	end, err := parseLine(endRaw)
	if err != nil {
		return NoLines, fmt.Errorf("%w %q: %w", ErrInvalidLineRange, s, err)
	}

	return Lines(start, end), nil
}

func parseLine(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "L")

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse line number: %w", err)
	}

	return n, nil
}

// IsSet reports whether a selection was made.
func (r LineRange) IsSet() bool {
	return r.set
}

// Start returns the first selected line and whether a selection exists.
func (r LineRange) Start() (int, bool) {
	return r.start, r.set
}

// End returns the last selected line and whether the selection has a distinct end.
func (r LineRange) End() (int, bool) {
	return r.end, r.set && r.end > r.start
}

// Anchor renders the URL fragment: "#L10", "#L10-L20" or "" without a selection.
// Negative starts render nothing.
func (r LineRange) Anchor() string {
	start, ok := r.Start()
	if !ok || start < 0 {
		return ""
	}

	anchor := "#L" + strconv.Itoa(start)

	if end, ok := r.End(); ok {
		anchor += "-L" + strconv.Itoa(end)
	}

	return anchor
}

func (r LineRange) String() string {
	if !r.IsSet() {
		return ""
	}

	if end, ok := r.End(); ok {
		return fmt.Sprintf("%d-%d", r.start, end)
	}

	return strconv.Itoa(r.start)
}
