package debianize

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mwanner/cargo-debianize/pkg/crate"
	"github.com/mwanner/cargo-debianize/pkg/deb"
)

const (
	compatContent       = "9\n"
	sourceFormatContent = "3.0 (quilt)\n"
	rulesContent        = "#!/usr/bin/make -f\n\n%:\n\tdh $@\n"
)

// Sink writes the produced artifacts to their fixed relative paths
// under the debian/ directory.
type Sink struct {
	dir string
}

// NewSink returns a sink rooted at the debian/ directory.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Write persists one fully computed result. The control file is written
// atomically; compat, source/format and rules are only created when
// absent so human edits survive.
func (s *Sink) Write(ctx context.Context, res *Result) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", s.dir)

	if err := os.MkdirAll(filepath.Join(s.dir, "source"), 0755); err != nil {
		return fmt.Errorf("creating the debian directory: %w", err)
	}

	if err := s.writeChangelog(ctx, res.Changelog); err != nil {
		return err
	}

	for name, content := range res.InstallFiles {
		path := filepath.Join(s.dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	mkPath := filepath.Join(s.dir, "Makefile.cargo")
	if err := os.WriteFile(mkPath, []byte(res.Makefile.Serialize()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", mkPath, err)
	}

	for _, f := range []struct {
		path    string
		content string
		mode    os.FileMode
	}{
		{filepath.Join(s.dir, "compat"), compatContent, 0644},
		{filepath.Join(s.dir, "source", "format"), sourceFormatContent, 0644},
		{filepath.Join(s.dir, "rules"), rulesContent, 0755},
	} {
		if err := writeIfAbsent(f.path, f.content, f.mode); err != nil {
			return err
		}
	}

	log.V(1).Info("writing control file")
	return res.Control.Serialize(filepath.Join(s.dir, "control"))
}

// writeChangelog creates the changelog when absent. An existing
// changelog for the same version is left untouched; anything else would
// need an update pass, which is not implemented.
func (s *Sink) writeChangelog(ctx context.Context, c *deb.Changelog) error {
	log := logr.FromContextOrDiscard(ctx)
	path := filepath.Join(s.dir, "changelog")

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c.ToFile(path)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() && strings.TrimSpace(scanner.Text()) == c.Header() {
		log.V(1).Info("changelog entry already present, leaving it alone")
		return nil
	}
	return deb.ErrChangelogUpdate
}

func writeIfAbsent(path, content string, mode os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Run performs one full packaging pass against the project rooted at
// dir: it loads existing on-disk state, derives the merged result and
// writes it out. Nothing is written when derivation fails.
func Run(ctx context.Context, dir string, project *crate.Package, cfg Config) error {
	log := logr.FromContextOrDiscard(ctx)

	debDir := filepath.Join(dir, "debian")
	var existing *deb.ControlFile
	controlPath := filepath.Join(debDir, "control")
	if _, err := os.Stat(controlPath); err == nil {
		existing, err = deb.LoadControlFile(controlPath)
		if err != nil {
			return err
		}
		log.V(1).Info("loaded existing control file", "paragraphs", len(existing.Paragraphs()))
	}

	res, err := Derive(ctx, project, existing, cfg)
	if err != nil {
		return err
	}
	return NewSink(debDir).Write(ctx, res)
}
