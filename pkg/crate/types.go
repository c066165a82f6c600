// Package crate models the host Cargo project: its manifest metadata,
// declared dependencies and build targets.
package crate

// DependencyKind mirrors the three Cargo dependency sections.
type DependencyKind string

const (
	KindNormal      DependencyKind = "normal"
	KindDevelopment DependencyKind = "dev"
	KindBuild       DependencyKind = "build"
)

// SourceKind describes where a dependency is fetched from.
type SourceKind string

const (
	SourceRegistry SourceKind = "registry"
	SourceGit      SourceKind = "git"
	SourcePath     SourceKind = "path"
)

// Dependency is one declared dependency of the crate.
type Dependency struct {
	Name       string
	Requirement string
	Kind       DependencyKind
	Optional   bool
	Source     SourceKind
}

// TargetKind disambiguates the build targets of a crate.
type TargetKind string

const (
	TargetLib     TargetKind = "lib"
	TargetBin     TargetKind = "bin"
	TargetExample TargetKind = "example"
)

// TargetMetadata carries the per-target build fingerprint used to
// namespace output filenames.
type TargetMetadata struct {
	Metadata      string
	ExtraFilename string
}

// Target is one build target of the crate.
type Target struct {
	Name     string
	Kind     TargetKind
	Profile  string
	SrcPath  string
	Metadata TargetMetadata
}

// Package is the resolved project model the packaging pass consumes.
type Package struct {
	Name         string
	Version      string
	Description  string
	Homepage     string
	Repository   string
	Dependencies []Dependency
	Targets      []Target

	// Warnings are non-fatal manifest findings surfaced to the user.
	Warnings []string
}
