package deb

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrChangelogUpdate is returned when a changelog already exists on
// disk. Merging new entries into changelog history is not implemented
// and silently rewriting it would lose data.
var ErrChangelogUpdate = errors.New("changelog update not supported")

// ChangelogEntry is one dated changelog entry.
//
// https://www.debian.org/doc/debian-policy/ch-source.html#debian-changelog-debian-changelog
type ChangelogEntry struct {
	Source       string
	Version      Version
	Distribution string
	Urgency      string
	Details      []string
	Maintainer   string
	Email        string
	Date         time.Time
}

// NewChangelogEntry returns an UNRELEASED, urgency=low entry dated now.
func NewChangelogEntry(source string, version Version, maintainer, email string, details ...string) ChangelogEntry {
	return ChangelogEntry{
		Source:       source,
		Version:      version,
		Distribution: "UNRELEASED",
		Urgency:      "low",
		Details:      details,
		Maintainer:   maintainer,
		Email:        email,
		Date:         time.Now().UTC(),
	}
}

// Changelog wraps exactly one entry. Multi-entry changelogs are neither
// read nor written by this tool.
type Changelog struct {
	Entry ChangelogEntry
}

// NewChangelog wraps a single entry.
func NewChangelog(entry ChangelogEntry) *Changelog {
	return &Changelog{Entry: entry}
}

// String renders the canonical single-entry changelog text.
func (c *Changelog) String() string {
	e := c.Entry
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) %s; urgency=%s\n\n", e.Source, e.Version, e.Distribution, e.Urgency)
	for _, d := range e.Details {
		fmt.Fprintf(&sb, "  * %s\n", d)
	}
	fmt.Fprintf(&sb, "\n -- %s <%s>  %s\n", e.Maintainer, e.Email,
		e.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	return sb.String()
}

// Header returns the entry's header line, the part of the changelog
// that identifies source, version and distribution.
func (c *Changelog) Header() string {
	e := c.Entry
	return fmt.Sprintf("%s (%s) %s; urgency=%s", e.Source, e.Version, e.Distribution, e.Urgency)
}

// ToFile writes the changelog to path. If path already exists the write
// is refused with ErrChangelogUpdate.
func (c *Changelog) ToFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return ErrChangelogUpdate
	}
	if err := os.WriteFile(path, []byte(c.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
