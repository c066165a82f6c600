package deb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelog_String(t *testing.T) {
	entry := NewChangelogEntry("rust-glob",
		Version{Upstream: "0.2.0", Revision: "1"},
		"Jane Developer", "jane@example.org",
		"Initial debianization.")
	entry.Date = time.Date(2015, time.March, 14, 9, 26, 53, 0, time.UTC)

	want := `rust-glob (0.2.0-1) UNRELEASED; urgency=low

  * Initial debianization.

 -- Jane Developer <jane@example.org>  Sat, 14 Mar 2015 09:26:53 +0000
`
	assert.Equal(t, want, NewChangelog(entry).String())
}

func TestChangelog_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changelog")
	c := NewChangelog(NewChangelogEntry("rust-glob",
		Version{Upstream: "0.2.0", Revision: "1"},
		"Jane Developer", "jane@example.org",
		"Initial debianization."))

	require.NoError(t, c.ToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.String(), string(data))

	// a pre-existing changelog must never be rewritten
	err = c.ToFile(path)
	assert.ErrorIs(t, err, ErrChangelogUpdate)
}
