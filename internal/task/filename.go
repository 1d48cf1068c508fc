package task

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Filename contract: <prefix>-<description>-<YYYYMMDD>-<HHMMSS><ext>.
// Writers stage content under a different name and atomically rename into
// place, so a file carrying the final pattern is always fully written.

// Pattern describes the task filename contract for a deployment.
// The description segment is free-form; the date-time suffix embeds the
// admission timestamp so lexical filename order equals admission order.
type Pattern struct {
	// Prefix is the literal leading segment, e.g. "task".
	Prefix string

	// Extension is the required file extension including the dot, e.g. ".md".
	Extension string

	re *regexp.Regexp
}

// DefaultPattern returns the standard contract: task-<desc>-YYYYMMDD-HHMMSS.md.
func DefaultPattern() *Pattern {
	p, err := NewPattern("task", ".md")
	if err != nil {
		panic(err) // built from constants, cannot fail
	}
	return p
}

// NewPattern builds a Pattern for the given prefix and extension.
func NewPattern(prefix, extension string) (*Pattern, error) {
	if prefix == "" {
		return nil, fmt.Errorf("pattern prefix must not be empty")
	}
	if !strings.HasPrefix(extension, ".") {
		return nil, fmt.Errorf("pattern extension must start with a dot, got %q", extension)
	}

	re := regexp.MustCompile(
		`^` + regexp.QuoteMeta(prefix) + `-(.+)-(\d{8})-(\d{6})` + regexp.QuoteMeta(extension) + `$`,
	)
	return &Pattern{
		Prefix:    prefix,
		Extension: extension,
		re:        re,
	}, nil
}

// Match reports whether filename satisfies the contract and, if so,
// returns the derived task ID (the filename without its extension).
// Only the base name is considered, so callers may pass full paths.
func (p *Pattern) Match(filename string) (string, bool) {
	base := filepath.Base(filename)
	m := p.re.FindStringSubmatch(base)
	if m == nil {
		return "", false
	}
	// The timestamp segments must parse as a real date-time; 8 digits
	// alone would admit e.g. month 13.
	if _, err := time.Parse("20060102-150405", m[2]+"-"+m[3]); err != nil {
		return "", false
	}
	return strings.TrimSuffix(base, p.Extension), true
}

// ParsedID holds the components encoded in a task ID.
type ParsedID struct {
	Description string
	Timestamp   time.Time
}

// ParseID decomposes a task ID back into its description and timestamp.
func (p *Pattern) ParseID(taskID string) (*ParsedID, error) {
	m := p.re.FindStringSubmatch(taskID + p.Extension)
	if m == nil {
		return nil, fmt.Errorf("task ID %q does not match pattern %s-<desc>-<YYYYMMDD>-<HHMMSS>", taskID, p.Prefix)
	}

	ts, err := time.Parse("20060102-150405", m[2]+"-"+m[3])
	if err != nil {
		return nil, fmt.Errorf("task ID %q has invalid timestamp: %w", taskID, err)
	}

	return &ParsedID{
		Description: m[1],
		Timestamp:   ts,
	}, nil
}

// Filename returns the filename for a given task ID.
func (p *Pattern) Filename(taskID string) string {
	return taskID + p.Extension
}
