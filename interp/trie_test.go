// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTrieSetGet(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Set("ls", "/bin/ls")
	tr.Set("ll", "alias for ls -l")

	v, ok := tr.Get("ls")
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v, qt.Equals, "/bin/ls")

	_, ok = tr.Get("missing")
	qt.Assert(t, ok, qt.IsFalse)
	qt.Assert(t, tr.Len(), qt.Equals, 2)
}

func TestTrieOverwriteDoesNotBumpLen(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Set("x", "1")
	tr.Set("x", "2")
	qt.Assert(t, tr.Len(), qt.Equals, 1)
	v, _ := tr.Get("x")
	qt.Assert(t, v, qt.Equals, "2")
}

func TestTrieDelete(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Set("a", "1")
	qt.Assert(t, tr.Delete("a"), qt.IsTrue)
	qt.Assert(t, tr.Delete("a"), qt.IsFalse)
	_, ok := tr.Get("a")
	qt.Assert(t, ok, qt.IsFalse)
	qt.Assert(t, tr.Len(), qt.Equals, 0)
}

func TestTrieEachPrefix(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Set("git", "1")
	tr.Set("gitk", "2")
	tr.Set("grep", "3")

	var keys []string
	tr.EachPrefix("gi", func(k, v string) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	qt.Assert(t, keys, qt.DeepEquals, []string{"git", "gitk"})
}

func TestTrieEachStopsEarly(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Set("a", "1")
	tr.Set("b", "2")
	tr.Set("c", "3")

	count := 0
	tr.Each(func(k, v string) bool {
		count++
		return false
	})
	qt.Assert(t, count, qt.Equals, 1)
}
