// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFilenameNoMeta(t *testing.T) {
	t.Parallel()
	got := Filename("plain.txt", "/tmp")
	qt.Assert(t, got, qt.DeepEquals, []string{"plain.txt"})
}

func TestFilenameGlobMatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.log"} {
		f, err := os.Create(filepath.Join(dir, name))
		qt.Assert(t, err, qt.IsNil)
		f.Close()
	}

	got := Filename("*.txt", dir)
	sort.Strings(got)
	qt.Assert(t, got, qt.DeepEquals, []string{"a.txt", "b.txt"})
}

func TestFilenameNoMatchKeepsLiteral(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	got := Filename("*.missing", dir)
	qt.Assert(t, got, qt.DeepEquals, []string{"*.missing"})
}

func TestFilenameHiddenFilesExcludedByDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{".hidden", "visible"} {
		f, err := os.Create(filepath.Join(dir, name))
		qt.Assert(t, err, qt.IsNil)
		f.Close()
	}
	got := Filename("*", dir)
	qt.Assert(t, got, qt.DeepEquals, []string{"visible"})
}
