// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDirStackPushPop(t *testing.T) {
	t.Parallel()
	d := NewDirStack()
	qt.Assert(t, d.Len(), qt.Equals, 0)

	d.Push("/a")
	d.Push("/b")
	qt.Assert(t, d.All(), qt.DeepEquals, []string{"/b", "/a"})

	top, ok := d.Pop()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, top, qt.Equals, "/b")
	qt.Assert(t, d.Len(), qt.Equals, 1)
}

func TestDirStackPopEmpty(t *testing.T) {
	t.Parallel()
	d := NewDirStack()
	_, ok := d.Pop()
	qt.Assert(t, ok, qt.IsFalse)
}

func TestDirStackAt(t *testing.T) {
	t.Parallel()
	d := NewDirStack()
	d.Push("/a")
	d.Push("/b")

	v, ok := d.At(0)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v, qt.Equals, "/b")

	v, ok = d.At(1)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v, qt.Equals, "/a")

	_, ok = d.At(2)
	qt.Assert(t, ok, qt.IsFalse)

	_, ok = d.At(-1)
	qt.Assert(t, ok, qt.IsFalse)
}
