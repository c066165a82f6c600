package debianize

import (
	"context"
	"strings"
	"testing"

	"github.com/mwanner/cargo-debianize/pkg/crate"
	"github.com/mwanner/cargo-debianize/pkg/deb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pault.ag/go/debian/control"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaintainerName = "Jane Developer"
	cfg.MaintainerEmail = "jane@example.org"
	return cfg
}

func testProject() *crate.Package {
	return &crate.Package{
		Name:        "glob",
		Version:     "0.2.0",
		Description: "Support for matching file paths.\nSecond line.",
		Homepage:    "http://example.org",
		Repository:  "https://github.com/rust-lang/glob",
		Dependencies: []crate.Dependency{
			{Name: "libc", Requirement: "0.1", Kind: crate.KindNormal, Source: crate.SourceRegistry},
			{Name: "openssl-sys", Requirement: "0.9", Kind: crate.KindNormal, Source: crate.SourceRegistry},
			{Name: "hamcrest", Kind: crate.KindDevelopment, Source: crate.SourcePath},
		},
		Targets: []crate.Target{{
			Name:    "glob",
			Kind:    crate.TargetLib,
			Profile: "release",
			SrcPath: "src/lib.rs",
			Metadata: crate.TargetMetadata{
				Metadata:      "abcdef0123456789",
				ExtraFilename: "-abcdef0123456789",
			},
		}},
	}
}

func serializeControl(t *testing.T, cf *deb.ControlFile) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, cf.WriteTo(&sb))
	return sb.String()
}

func TestDerive_FreshProject(t *testing.T) {
	res, err := Derive(context.TODO(), testProject(), nil, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "rust-glob", res.SourceName)
	assert.Equal(t, "0.2.0-1", res.Version.String())

	paras := res.Control.Paragraphs()
	require.Len(t, paras, 3)

	src := paras[0]
	for field, want := range map[string]string{
		"Source":            "rust-glob",
		"Priority":          "optional",
		"Section":           "rust",
		"Maintainer":        "Debian Rust Team <rust@debian.org>",
		"Uploaders":         "Jane Developer <jane@example.org>",
		"Standards-Version": "3.9.6",
		"Build-Depends":     "debhelper (>= 9.20150101.1+nmu1), rustc, libc-rust-dev, libopenssl-rust-dev",
		"Vcs-Git":           "https://github.com/rust-lang/glob",
		"Vcs-Browser":       "https://github.com/rust-lang/glob",
		"Homepage":          "http://example.org",
	} {
		got, ok := src.GetEntry(field)
		require.True(t, ok, "missing field %s", field)
		assert.Equal(t, want, got, field)
	}

	lib := paras[1]
	name, _ := lib.GetEntry("Package")
	assert.Equal(t, "rust-glob-0.2.0", name)
	desc, _ := lib.GetEntry("Description")
	assert.Equal(t, "rust-glob rust crate - dylib\nSupport for matching file paths.\nSecond line.\n.\nThis package contains the dynamic library.", desc)

	dev := paras[2]
	name, _ = dev.GetEntry("Package")
	assert.Equal(t, "rust-glob-dev", name)

	assert.Equal(t,
		"/usr/lib/x86_64-linux-gnu/rust/1.0/lib/rustlib/x86_64-unknown-linux-gnu/lib/libglob-*.so\n",
		res.InstallFiles["rust-glob-0.2.0.install"])
	assert.Contains(t, res.InstallFiles["rust-glob-dev.install"], "libglob-*.rlib\n")
	assert.Contains(t, res.InstallFiles["rust-glob-dev.install"], "libglob-*.a\n")

	mk := res.Makefile.Serialize()
	assert.True(t, strings.HasPrefix(mk, "#!/usr/bin/make -f\n\n# Automatically generated. DO NOT EDIT.\n"))
	assert.Contains(t, mk, "all: build/libglob.stamp")
	assert.Contains(t, mk, "build/libglob-abcdef0123456789.so: build/libglob.stamp")
	assert.Contains(t, mk, "rustc src/lib.rs --crate-name glob --crate-type staticlib,rlib,dylib")
	assert.Contains(t, mk, "check: all")

	assert.Equal(t, "rust-glob (0.2.0-1) UNRELEASED; urgency=low", res.Changelog.Header())
}

func TestDerive_Idempotent(t *testing.T) {
	project := testProject()
	first, err := Derive(context.TODO(), project, nil, testConfig())
	require.NoError(t, err)
	firstText := serializeControl(t, first.Control)

	existing, err := deb.ParseControl(strings.NewReader(firstText))
	require.NoError(t, err)

	second, err := Derive(context.TODO(), project, existing, testConfig())
	require.NoError(t, err)
	assert.Equal(t, firstText, serializeControl(t, second.Control))
}

func TestDerive_PreservesEditedFields(t *testing.T) {
	existing, err := deb.ParseControl(strings.NewReader(`Source: rust-glob
Priority: extra
Maintainer: Someone Else <someone@example.net>
X-Custom-Field: kept as-is
`))
	require.NoError(t, err)

	res, err := Derive(context.TODO(), testProject(), existing, testConfig())
	require.NoError(t, err)

	src := res.Control.Paragraphs()[0]
	priority, _ := src.GetEntry("Priority")
	assert.Equal(t, "extra", priority)
	maintainer, _ := src.GetEntry("Maintainer")
	assert.Equal(t, "Someone Else <someone@example.net>", maintainer)
	custom, _ := src.GetEntry("X-Custom-Field")
	assert.Equal(t, "kept as-is", custom)
}

func TestDerive_OverridesHomepageAndVcs(t *testing.T) {
	existing, err := deb.ParseControl(strings.NewReader(`Source: rust-glob
Homepage: http://stale.example.net
Vcs-Git: http://stale.example.net/repo.git
`))
	require.NoError(t, err)

	res, err := Derive(context.TODO(), testProject(), existing, testConfig())
	require.NoError(t, err)

	src := res.Control.Paragraphs()[0]
	homepage, _ := src.GetEntry("Homepage")
	assert.Equal(t, "http://example.org", homepage)
	vcs, _ := src.GetEntry("Vcs-Git")
	assert.Equal(t, "https://github.com/rust-lang/glob", vcs)
}

func TestDerive_SkipsPathDevDependencies(t *testing.T) {
	project := testProject()
	project.Dependencies = []crate.Dependency{
		{Name: "bar", Kind: crate.KindDevelopment, Source: crate.SourcePath},
	}

	res, err := Derive(context.TODO(), project, nil, testConfig())
	require.NoError(t, err)

	bd, _ := res.Control.Paragraphs()[0].GetEntry("Build-Depends")
	assert.NotContains(t, bd, "bar-dev")
}

func TestDerive_RespectsBuildDependsIndep(t *testing.T) {
	existing, err := deb.ParseControl(strings.NewReader(`Source: rust-glob
Build-Depends-Indep: libc-rust-dev
`))
	require.NoError(t, err)

	res, err := Derive(context.TODO(), testProject(), existing, testConfig())
	require.NoError(t, err)

	src := res.Control.Paragraphs()[0]
	bd, _ := src.GetEntry("Build-Depends")
	assert.NotContains(t, bd, "libc-rust-dev", "dependency satisfied via Build-Depends-Indep")
	bdi, _ := src.GetEntry("Build-Depends-Indep")
	assert.Equal(t, "libc-rust-dev", bdi, "Build-Depends-Indep is never rewritten")
}

func TestDerive_MalformedBuildDepends(t *testing.T) {
	existing, err := deb.ParseControl(strings.NewReader(`Source: rust-glob
Build-Depends: debhelper (>= 9
`))
	require.NoError(t, err)

	_, err = Derive(context.TODO(), testProject(), existing, testConfig())
	require.Error(t, err)
	assert.IsType(t, &deb.ParseError{}, err)
}

func TestDerive_RegeneratesEmptyControl(t *testing.T) {
	res, err := Derive(context.TODO(), testProject(), deb.NewControlFile(), testConfig())
	require.NoError(t, err)

	src, ok := res.Control.Paragraphs()[0].GetEntry("Source")
	assert.True(t, ok)
	assert.Equal(t, "rust-glob", src)
}

// The generated control file has to be readable by the stock control
// decoder used elsewhere in the Debian tooling ecosystem.
func TestDerive_OutputDecodes(t *testing.T) {
	res, err := Derive(context.TODO(), testProject(), nil, testConfig())
	require.NoError(t, err)

	var paras []struct {
		Source  string
		Package string
	}
	dec, err := control.NewDecoder(strings.NewReader(serializeControl(t, res.Control)), nil)
	require.NoError(t, err)
	require.NoError(t, dec.Decode(&paras))

	require.Len(t, paras, 3)
	assert.Equal(t, "rust-glob", paras[0].Source)
	assert.Equal(t, "rust-glob-0.2.0", paras[1].Package)
	assert.Equal(t, "rust-glob-dev", paras[2].Package)
}
