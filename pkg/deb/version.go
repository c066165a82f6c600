package deb

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a Debian package version of the form
// [epoch:]upstream_version[-debian_revision].
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#s-f-version
type Version struct {
	Epoch    int
	Upstream string
	Revision string
}

// ParseError reports a malformed version string or dependency
// expression, carrying the offending text.
type ParseError struct {
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Text)
}

// ParseVersion parses a Debian version string. The epoch is everything
// before the first colon, the revision everything after the last hyphen.
func ParseVersion(s string) (Version, error) {
	var v Version
	rest := s
	if idx := strings.Index(rest, ":"); idx != -1 {
		epoch, err := strconv.Atoi(rest[:idx])
		if err != nil || epoch < 0 {
			return Version{}, &ParseError{Text: s, Msg: "malformed version epoch"}
		}
		v.Epoch = epoch
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, "-"); idx != -1 {
		v.Revision = rest[idx+1:]
		rest = rest[:idx]
	}
	if rest == "" {
		return Version{}, &ParseError{Text: s, Msg: "empty upstream version"}
	}
	v.Upstream = rest
	return v, nil
}

// String renders the canonical form: the epoch is omitted when zero and
// the revision when absent.
func (v Version) String() string {
	var sb strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&sb, "%d:", v.Epoch)
	}
	sb.WriteString(v.Upstream)
	if v.Revision != "" {
		sb.WriteString("-")
		sb.WriteString(v.Revision)
	}
	return sb.String()
}

// Compare returns a negative value if v sorts before o, zero if they are
// equal and a positive value otherwise, per the dpkg ordering.
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		return v.Epoch - o.Epoch
	}
	if c := verrevcmp(v.Upstream, o.Upstream); c != 0 {
		return c
	}
	return verrevcmp(v.Revision, o.Revision)
}

// charOrder assigns the collation weight dpkg uses: a tilde sorts before
// everything including the end of the string, letters before all other
// non-digit characters.
func charOrder(c byte) int {
	switch {
	case c == '~':
		return -1
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// verrevcmp compares two version fragments with the Debian collation:
// alternating non-digit and digit spans, digit spans compared numerically.
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) {
				ac = charOrder(a[i])
			}
			if j < len(b) {
				bc = charOrder(b[j])
			}
			if ac != bc {
				return ac - bc
			}
			i++
			j++
		}
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		firstDiff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return firstDiff
		}
	}
	return 0
}
