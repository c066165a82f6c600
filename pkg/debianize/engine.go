// Package debianize derives Debian source-packaging metadata from a
// crate's project model and merges it with whatever already exists in
// the debian/ directory, without clobbering human edits.
package debianize

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mwanner/cargo-debianize/pkg/crate"
	"github.com/mwanner/cargo-debianize/pkg/deb"
	"github.com/mwanner/cargo-debianize/pkg/makefile"
)

const (
	defaultPriority         = "optional"
	defaultSection          = "rust"
	defaultTeam             = "Debian Rust Team <rust@debian.org>"
	defaultStandardsVersion = "3.9.6"

	minDebhelperVersion = "9.20150101.1+nmu1"

	libInstallDir = "/usr/lib/x86_64-linux-gnu/rust/1.0/lib/rustlib/x86_64-unknown-linux-gnu/lib"
)

// Config carries the injected defaults for fields this tool writes.
// Tests supply fixed values; the CLI fills it from the environment and
// an optional override file.
type Config struct {
	MaintainerName   string
	MaintainerEmail  string
	Team             string
	Section          string
	StandardsVersion string
}

// DefaultConfig returns the stock field defaults.
func DefaultConfig() Config {
	return Config{
		Team:             defaultTeam,
		Section:          defaultSection,
		StandardsVersion: defaultStandardsVersion,
	}
}

// Result is everything one packaging pass produces, computed fully in
// memory before anything is written.
type Result struct {
	SourceName   string
	Version      deb.Version
	Control      *deb.ControlFile
	Changelog    *deb.Changelog
	InstallFiles map[string]string
	Makefile     *makefile.File
}

// Derive runs the merge pass: it reconciles the facts derived from the
// project model with the existing control file and builds the full
// output set. It never touches the filesystem.
func Derive(ctx context.Context, project *crate.Package, existing *deb.ControlFile, cfg Config) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	sourceName := TransformPackageName(project.Name)
	version, err := deb.ParseVersion(project.Version + "-1")
	if err != nil {
		return nil, err
	}
	log.V(1).Info("derived source package", "name", sourceName, "version", version.String())

	gp := sourceParagraph(ctx, existing, sourceName)

	for _, field := range []struct{ name, value string }{
		{"Priority", defaultPriority},
		{"Section", cfg.Section},
		{"Maintainer", cfg.Team},
		{"Uploaders", fmt.Sprintf("%s <%s>", cfg.MaintainerName, cfg.MaintainerEmail)},
		{"Standards-Version", cfg.StandardsVersion},
	} {
		if !gp.HasEntry(field.name) {
			if err := gp.AddEntry(field.name, field.value); err != nil {
				return nil, err
			}
		}
	}

	if err := syncBuildDepends(ctx, gp, project.Dependencies); err != nil {
		return nil, err
	}

	// Repository and homepage are authoritative from the manifest and
	// always overridden.
	if project.Repository != "" {
		gp.UpdateEntry("Vcs-Git", project.Repository)
		gp.UpdateEntry("Vcs-Browser", project.Repository)
	}
	if project.Homepage != "" {
		gp.UpdateEntry("Homepage", project.Homepage)
	}

	res := &Result{
		SourceName:   sourceName,
		Version:      version,
		Control:      deb.NewControlFile(),
		InstallFiles: map[string]string{},
		Makefile:     makefile.NewFile(),
	}
	res.Control.AddParagraph(gp)

	res.Changelog = deb.NewChangelog(deb.NewChangelogEntry(
		sourceName, version, cfg.MaintainerName, cfg.MaintainerEmail,
		"Initial debianization."))

	if err := deriveTargets(res, project); err != nil {
		return nil, err
	}
	return res, nil
}

// sourceParagraph clones the first paragraph of the existing control
// file, or starts a fresh source stanza. A control file without a
// single parseable paragraph is regenerated with a warning.
func sourceParagraph(ctx context.Context, existing *deb.ControlFile, sourceName string) *deb.ControlParagraph {
	log := logr.FromContextOrDiscard(ctx)

	if existing != nil {
		if paras := existing.Paragraphs(); len(paras) > 0 {
			gp := paras[0].Clone()
			if !gp.HasEntry("Source") {
				gp.UpdateEntry("Source", sourceName)
			}
			return gp
		}
		log.Info("existing control file has no paragraphs, regenerating the source stanza")
	}

	gp := deb.NewControlParagraph()
	_ = gp.AddEntry("Source", sourceName)
	return gp
}

// syncBuildDepends rewrites the Build-Depends field: toolchain
// dependencies and one -dev package per crate dependency are appended
// unless something in Build-Depends or Build-Depends-Indep already
// provides them. Build-Depends-Indep is consulted but never rewritten.
func syncBuildDepends(ctx context.Context, gp *deb.ControlParagraph, deps []crate.Dependency) error {
	log := logr.FromContextOrDiscard(ctx)

	var current, indep []deb.Dependency
	if val, ok := gp.GetEntry("Build-Depends"); ok {
		parsed, err := deb.ParseDepList(val)
		if err != nil {
			return err
		}
		current = parsed
	}
	if val, ok := gp.GetEntry("Build-Depends-Indep"); ok {
		parsed, err := deb.ParseDepList(val)
		if err != nil {
			return err
		}
		indep = parsed
	}

	present := map[string]bool{}
	for _, d := range append(append([]deb.Dependency{}, current...), indep...) {
		for _, alt := range d.Alternatives {
			present[alt.Package] = true
		}
	}

	if !present["debhelper"] {
		minVersion, err := deb.ParseVersion(minDebhelperVersion)
		if err != nil {
			return err
		}
		current = append(current, deb.Dependency{Alternatives: []deb.SingleDependency{{
			Package: "debhelper",
			Version: &deb.VersionConstraint{Relation: deb.RelLaterOrEqual, Version: minVersion},
		}}})
	}
	if !present["rustc"] {
		current = append(current, deb.Dependency{Alternatives: []deb.SingleDependency{{
			Package: "rustc",
		}}})
	}

	for _, dep := range deps {
		// dev dependencies living in the same repository have no
		// packaging equivalent
		if dep.Kind == crate.KindDevelopment && dep.Source == crate.SourcePath {
			log.V(2).Info("skipping path-sourced dev dependency", "name", dep.Name)
			continue
		}
		devName := TransformPackageName(dep.Name) + "-dev"
		if present[devName] {
			log.V(2).Info("build dependency already present", "name", devName)
			continue
		}
		current = append(current, deb.Dependency{Alternatives: []deb.SingleDependency{{
			Package: devName,
		}}})
	}

	gp.UpdateEntry("Build-Depends", deb.SerializeDepList(current))
	return nil
}

// deriveTargets emits, for every release-profile library target, the
// binary package paragraphs, the install lists and the build rules.
func deriveTargets(res *Result, project *crate.Package) error {
	all := makefile.NewRule("all")
	install := makefile.NewRule("install").AddDep("all")
	install.AddCommand("install -d $(DESTDIR)" + libInstallDir + "/")

	var libRules []*makefile.Rule
	for _, target := range project.Targets {
		if target.Kind != crate.TargetLib || target.Profile != "release" {
			continue
		}

		stamp := "build/lib" + target.Name + ".stamp"
		build := makefile.NewRule(stamp).
			AddCommand("@if test ! -d build; then mkdir build; fi").
			AddCommand(fmt.Sprintf("rustc %s --crate-name %s --crate-type staticlib,rlib,dylib"+
				" -C prefer-dynamic -C opt-level=3 --cfg ndebug -C metadata=%s -C extra-filename=%s"+
				" --out-dir build --emit=dep-info,link",
				target.SrcPath, target.Name, target.Metadata.Metadata, target.Metadata.ExtraFilename)).
			AddCommand("touch " + stamp)
		libRules = append(libRules, build)
		all.AddDep(stamp)

		for _, ext := range []string{".so", ".rlib", ".a"} {
			artifact := "build/lib" + target.Name + target.Metadata.ExtraFilename + ext
			libRules = append(libRules, makefile.Singleton(artifact, stamp))
			install.AddCommand(fmt.Sprintf("install -m 644 -s %s $(DESTDIR)%s/", artifact, libInstallDir))
		}

		res.Control.AddParagraph(binaryParagraph(
			fmt.Sprintf("%s-%s", res.SourceName, project.Version),
			fmt.Sprintf("%s rust crate - dylib", res.SourceName),
			project.Description,
			"This package contains the dynamic library."))
		res.Control.AddParagraph(binaryParagraph(
			res.SourceName+"-dev",
			fmt.Sprintf("%s rust crate - rlib and staticlib", res.SourceName),
			project.Description,
			"This package contains the static and rlib variants of the library."))

		res.InstallFiles[fmt.Sprintf("%s-%s.install", res.SourceName, project.Version)] =
			fmt.Sprintf("%s/lib%s-*.so\n", libInstallDir, target.Name)
		res.InstallFiles[res.SourceName+"-dev.install"] =
			fmt.Sprintf("%s/lib%s-*.rlib\n%s/lib%s-*.a\n", libInstallDir, target.Name, libInstallDir, target.Name)
	}

	if err := res.Makefile.AddRule(all); err != nil {
		return err
	}
	for _, r := range libRules {
		if err := res.Makefile.AddRule(r); err != nil {
			return err
		}
	}
	if err := res.Makefile.AddRule(install); err != nil {
		return err
	}
	return res.Makefile.AddRule(makefile.NewRule("check").AddDep("all"))
}

// binaryParagraph builds one binary package stanza with the fixed field
// set and a folded description.
func binaryParagraph(name, synopsis, description, contents string) *deb.ControlParagraph {
	lp := deb.NewControlParagraph()
	_ = lp.AddEntry("Package", name)
	_ = lp.AddEntry("Architecture", "amd64 i386")
	_ = lp.AddEntry("Pre-Depends", "${misc:Pre-Depends}")
	_ = lp.AddEntry("Depends", "${misc:Depends}, ${shlibs:Depends}")

	value := synopsis
	if description != "" {
		value += "\n" + strings.TrimSpace(description) + "\n.\n" + contents
	}
	_ = lp.AddEntry("Description", value)
	return lp
}
