package deb

import (
	"strings"
)

// VersionRelation is one of the comparison operators allowed in a
// versioned dependency.
//
// https://www.debian.org/doc/debian-policy/ch-relationships.html
type VersionRelation string

const (
	RelStrictlyEarlier VersionRelation = "<<"
	RelEarlierOrEqual  VersionRelation = "<="
	RelExactlyEqual    VersionRelation = "="
	RelLaterOrEqual    VersionRelation = ">="
	RelStrictlyLater   VersionRelation = ">>"
)

// VersionConstraint pairs a relation with the version it constrains to.
type VersionConstraint struct {
	Relation VersionRelation
	Version  Version
}

// SingleDependency is one alternative within a dependency group:
// a package name with an optional version constraint and an optional
// architecture qualifier.
type SingleDependency struct {
	Package string
	Version *VersionConstraint
	Arch    string
}

// Dependency is a group of pipe-separated alternatives. The list is
// never empty.
type Dependency struct {
	Alternatives []SingleDependency
}

func (d SingleDependency) String() string {
	var sb strings.Builder
	sb.WriteString(d.Package)
	if d.Version != nil {
		sb.WriteString(" (")
		sb.WriteString(string(d.Version.Relation))
		sb.WriteString(" ")
		sb.WriteString(d.Version.Version.String())
		sb.WriteString(")")
	}
	if d.Arch != "" {
		sb.WriteString(" [")
		sb.WriteString(d.Arch)
		sb.WriteString("]")
	}
	return sb.String()
}

func (d Dependency) String() string {
	parts := make([]string, len(d.Alternatives))
	for i, alt := range d.Alternatives {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}

// SerializeDepList renders a dependency list as the comma-joined field
// value, the exact inverse of ParseDepList.
func SerializeDepList(deps []Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// ParseDepList parses a relationship field value such as Build-Depends.
// Groups are separated by commas at the top level only; a comma inside
// parentheses belongs to a version constraint.
func ParseDepList(s string) ([]Dependency, error) {
	var deps []Dependency
	for _, group := range splitTopLevel(s, ',') {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		var dep Dependency
		for _, alt := range strings.Split(group, "|") {
			single, err := parseSingleDep(strings.TrimSpace(alt))
			if err != nil {
				return nil, err
			}
			dep.Alternatives = append(dep.Alternatives, single)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// splitTopLevel splits on sep outside of any parenthesized span.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parseSingleDep(s string) (SingleDependency, error) {
	var dep SingleDependency
	rest := s

	if idx := strings.IndexAny(rest, " (["); idx != -1 {
		dep.Package = rest[:idx]
		rest = strings.TrimSpace(rest[idx:])
	} else {
		dep.Package = rest
		rest = ""
	}
	if dep.Package == "" {
		return SingleDependency{}, &ParseError{Text: s, Msg: "missing package name in dependency"}
	}

	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end == -1 {
			return SingleDependency{}, &ParseError{Text: s, Msg: "unbalanced parenthesis in dependency"}
		}
		constraint, err := parseConstraint(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return SingleDependency{}, err
		}
		dep.Version = constraint
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end == -1 {
			return SingleDependency{}, &ParseError{Text: s, Msg: "unbalanced bracket in dependency"}
		}
		dep.Arch = strings.TrimSpace(rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
	}

	if rest != "" {
		return SingleDependency{}, &ParseError{Text: s, Msg: "trailing garbage in dependency"}
	}
	return dep, nil
}

func parseConstraint(s string) (*VersionConstraint, error) {
	for _, rel := range []VersionRelation{
		RelStrictlyEarlier, RelEarlierOrEqual,
		RelLaterOrEqual, RelStrictlyLater, RelExactlyEqual,
	} {
		if strings.HasPrefix(s, string(rel)) {
			ver, err := ParseVersion(strings.TrimSpace(s[len(rel):]))
			if err != nil {
				return nil, err
			}
			return &VersionConstraint{Relation: rel, Version: ver}, nil
		}
	}
	return nil, &ParseError{Text: s, Msg: "unknown version relation"}
}
