// Package makefile builds make rule graphs as structured data and
// serializes them in one place, so generated build files stay
// deterministic and free of duplicate targets.
package makefile

import (
	"fmt"
	"strings"
)

const header = "#!/usr/bin/make -f\n\n# Automatically generated. DO NOT EDIT.\n\n"

// Rule is one make rule: a target, its prerequisites and the shell
// commands that produce it.
type Rule struct {
	Target   string
	Deps     []string
	Commands []string
}

// NewRule returns a rule with no prerequisites or commands.
func NewRule(target string) *Rule {
	return &Rule{Target: target}
}

// Singleton returns a rule with a single prerequisite and no commands.
func Singleton(target, dep string) *Rule {
	return &Rule{Target: target, Deps: []string{dep}}
}

// AddDep appends a prerequisite.
func (r *Rule) AddDep(dep string) *Rule {
	r.Deps = append(r.Deps, dep)
	return r
}

// AddCommand appends a shell command line.
func (r *Rule) AddCommand(cmd string) *Rule {
	r.Commands = append(r.Commands, cmd)
	return r
}

func (r *Rule) serialize() string {
	var sb strings.Builder
	sb.WriteString(r.Target)
	sb.WriteString(":")
	for _, d := range r.Deps {
		sb.WriteString(" ")
		sb.WriteString(d)
	}
	for _, c := range r.Commands {
		sb.WriteString("\n\t")
		sb.WriteString(c)
	}
	return sb.String()
}

// File accumulates rules in emission order.
type File struct {
	rules []*Rule
}

// NewFile returns an empty rule file.
func NewFile() *File {
	return &File{}
}

// AddRule appends a rule. Defining the same target twice is an error;
// make would warn and silently drop one of the recipes.
func (f *File) AddRule(r *Rule) error {
	for _, existing := range f.rules {
		if existing.Target == r.Target {
			return fmt.Errorf("duplicate make target: %s", r.Target)
		}
	}
	f.rules = append(f.rules, r)
	return nil
}

// Serialize renders the whole file: a fixed header marking it as
// machine-generated, then the rules separated by blank lines.
func (f *File) Serialize() string {
	parts := make([]string, len(f.rules))
	for i, r := range f.rules {
		parts[i] = r.serialize()
	}
	return header + strings.Join(parts, "\n\n") + "\n"
}
