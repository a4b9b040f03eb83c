// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tidesh.dev/tidesh/expand"
)

func TestEnvironmentGetSet(t *testing.T) {
	t.Parallel()
	e := NewEnvironment([]string{"FOO=bar", "malformed", "EMPTY="})
	qt.Assert(t, e.Get("FOO").Str, qt.Equals, "bar")
	qt.Assert(t, e.Get("EMPTY").IsSet(), qt.IsTrue)
	qt.Assert(t, e.Get("malformed").IsSet(), qt.IsFalse)

	e.SetStr("NEW", "val")
	qt.Assert(t, e.Get("NEW").Str, qt.Equals, "val")
}

func TestEnvironmentUnset(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.SetStr("X", "1")
	e.Unset("X")
	qt.Assert(t, e.Get("X").IsSet(), qt.IsFalse)
}

func TestEnvironmentReadOnlyRejectsSet(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.Set("RO", expand.Variable{Set: true, ReadOnly: true, Str: "1"})
	err := e.Set("RO", expand.Variable{Set: true, Str: "2"})
	qt.Assert(t, err, qt.ErrorMatches, "RO: readonly variable")
	qt.Assert(t, e.Get("RO").Str, qt.Equals, "1")
}

func TestEnvironmentExportPreservesValue(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.SetStr("X", "val")
	e.Export("X")
	qt.Assert(t, e.Get("X").Exported, qt.IsTrue)
	qt.Assert(t, e.Get("X").Str, qt.Equals, "val")
}

func TestEnvironmentExportedSortedAndFiltered(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.SetStr("B", "2")
	e.Export("B")
	e.SetStr("A", "1")
	e.Export("A")
	e.SetStr("UNEXPORTED", "x")

	qt.Assert(t, e.Exported(), qt.DeepEquals, []string{"A=1", "B=2"})
}

func TestEnvironmentSnapshotIsIndependent(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.SetStr("X", "orig")
	snap := e.Snapshot()
	snap.SetStr("X", "changed")
	qt.Assert(t, e.Get("X").Str, qt.Equals, "orig")
	qt.Assert(t, snap.Get("X").Str, qt.Equals, "changed")
}

func TestEnvironmentEachInsertionOrder(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	e.SetStr("THIRD", "3")
	e.SetStr("FIRST", "1")
	e.SetStr("SECOND", "2")

	var names []string
	e.Each(func(name string, v expand.Variable) bool {
		names = append(names, name)
		return true
	})
	qt.Assert(t, names, qt.DeepEquals, []string{"THIRD", "FIRST", "SECOND"})
}

func TestEnvironmentOnChangeFiresOldAndNew(t *testing.T) {
	t.Parallel()
	e := NewEnvironment(nil)
	var gotOld, gotNew expand.Variable
	var gotName string
	e.OnChange(func(name string, old, new expand.Variable) {
		gotName, gotOld, gotNew = name, old, new
	})
	e.SetStr("X", "1")
	qt.Assert(t, gotName, qt.Equals, "X")
	qt.Assert(t, gotOld.IsSet(), qt.IsFalse)
	qt.Assert(t, gotNew.Str, qt.Equals, "1")
}
