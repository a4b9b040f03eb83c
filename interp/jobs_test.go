// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestJobTableAddAssignsSmallestUnusedID(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	j1 := jt.Add(100, 100, "sleep 1")
	j2 := jt.Add(101, 101, "sleep 2")
	qt.Assert(t, j1.ID, qt.Equals, 1)
	qt.Assert(t, j2.ID, qt.Equals, 2)

	jt.SetState(j1, Done, 0)
	jt.Reap()
	j3 := jt.Add(102, 102, "sleep 3")
	qt.Assert(t, j3.ID, qt.Equals, 1)
}

func TestJobTableCurrentAndPrevious(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	jt.Add(100, 100, "a")
	j2 := jt.Add(101, 101, "b")
	j3 := jt.Add(102, 102, "c")

	cur, ok := jt.Current()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, cur.ID, qt.Equals, j3.ID)

	prev, ok := jt.Previous()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, prev.ID, qt.Equals, j2.ID)
}

func TestJobTableCurrentSkipsFinished(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	j1 := jt.Add(100, 100, "a")
	j2 := jt.Add(101, 101, "b")
	jt.SetState(j2, Done, 0)

	cur, ok := jt.Current()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, cur.ID, qt.Equals, j1.ID)
}

func TestJobTableSetStateClearsNotifiedOnFinish(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	j := jt.Add(100, 100, "a")
	j.Notified = true
	jt.SetState(j, Done, 3)
	qt.Assert(t, j.Notified, qt.IsFalse)
	qt.Assert(t, j.ExitStatus, qt.Equals, 3)
}

func TestJobTableReapKeepsUnnotified(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	j1 := jt.Add(100, 100, "a")
	jt.SetState(j1, Done, 0)
	j1.Notified = false

	jt.Reap()
	qt.Assert(t, len(jt.All()), qt.Equals, 1)

	j1.Notified = true
	jt.Reap()
	qt.Assert(t, len(jt.All()), qt.Equals, 0)
}

func TestPrintTransitionMarksCurrentJob(t *testing.T) {
	t.Parallel()
	jt := NewJobTable(1)
	j := jt.Add(100, 100, "sleep 5")

	r, w, err := os.Pipe()
	qt.Assert(t, err, qt.IsNil)
	PrintTransition(w, jt, j)
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	qt.Assert(t, buf.String(), qt.Equals, "[1]+\tRunning\t\tsleep 5\n")
}
