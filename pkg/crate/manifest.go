package crate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-logr/logr"
)

// manifest mirrors the subset of Cargo.toml this tool reads.
type manifest struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
		Homepage    string `toml:"homepage"`
		Repository  string `toml:"repository"`
	} `toml:"package"`
	Lib *struct {
		Name string `toml:"name"`
		Path string `toml:"path"`
	} `toml:"lib"`
	Dependencies      map[string]toml.Primitive `toml:"dependencies"`
	DevDependencies   map[string]toml.Primitive `toml:"dev-dependencies"`
	BuildDependencies map[string]toml.Primitive `toml:"build-dependencies"`
}

// detailedDependency is the table form of a dependency declaration.
type detailedDependency struct {
	Version  string `toml:"version"`
	Path     string `toml:"path"`
	Git      string `toml:"git"`
	Optional bool   `toml:"optional"`
}

// LoadManifest reads a Cargo.toml and resolves it into the project
// model, deriving the release lib target.
func LoadManifest(ctx context.Context, path string) (*Package, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	var m manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%s: missing package name", path)
	}
	if m.Package.Version == "" {
		return nil, fmt.Errorf("%s: missing package version", path)
	}
	log.V(1).Info("loaded manifest", "name", m.Package.Name, "version", m.Package.Version)

	pkg := &Package{
		Name:        m.Package.Name,
		Version:     m.Package.Version,
		Description: m.Package.Description,
		Homepage:    m.Package.Homepage,
		Repository:  m.Package.Repository,
	}
	if pkg.Description == "" {
		pkg.Warnings = append(pkg.Warnings, "manifest has no description")
	}
	if pkg.Repository == "" {
		pkg.Warnings = append(pkg.Warnings, "manifest has no repository")
	}

	for _, section := range []struct {
		kind DependencyKind
		deps map[string]toml.Primitive
	}{
		{KindNormal, m.Dependencies},
		{KindDevelopment, m.DevDependencies},
		{KindBuild, m.BuildDependencies},
	} {
		deps, err := decodeDependencies(&meta, section.kind, section.deps)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		pkg.Dependencies = append(pkg.Dependencies, deps...)
	}

	pkg.Targets = append(pkg.Targets, libTarget(&m))
	return pkg, nil
}

func decodeDependencies(meta *toml.MetaData, kind DependencyKind, raw map[string]toml.Primitive) ([]Dependency, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	// map order is not deterministic; the packaging pass needs a stable
	// dependency order for idempotent output
	sort.Strings(names)

	var deps []Dependency
	for _, name := range names {
		dep := Dependency{Name: name, Kind: kind, Source: SourceRegistry}

		var req string
		if err := meta.PrimitiveDecode(raw[name], &req); err == nil {
			dep.Requirement = req
			deps = append(deps, dep)
			continue
		}

		var detail detailedDependency
		if err := meta.PrimitiveDecode(raw[name], &detail); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", name, err)
		}
		dep.Requirement = detail.Version
		dep.Optional = detail.Optional
		if detail.Path != "" {
			dep.Source = SourcePath
		} else if detail.Git != "" {
			dep.Source = SourceGit
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// libTarget derives the single release-profile library target. The
// crate name has hyphens mapped to underscores unless [lib] overrides
// it, matching what cargo does.
func libTarget(m *manifest) Target {
	name := strings.ReplaceAll(m.Package.Name, "-", "_")
	src := "src/lib.rs"
	if m.Lib != nil {
		if m.Lib.Name != "" {
			name = m.Lib.Name
		}
		if m.Lib.Path != "" {
			src = m.Lib.Path
		}
	}
	meta := metadataHash(m.Package.Name, m.Package.Version)
	return Target{
		Name:    name,
		Kind:    TargetLib,
		Profile: "release",
		SrcPath: src,
		Metadata: TargetMetadata{
			Metadata:      meta,
			ExtraFilename: "-" + meta,
		},
	}
}

// metadataHash is a deterministic stand-in for cargo's target
// fingerprint, stable across runs for the same name and version.
func metadataHash(name, version string) string {
	sum := sha256.Sum256([]byte(name + "-" + version))
	return hex.EncodeToString(sum[:])[:16]
}
