// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFieldsVariableExpandsBeforeBrace(t *testing.T) {
	t.Parallel()
	// $X's brace-shaped value is itself brace-expanded, which only happens
	// if variable expansion ran before brace expansion.
	env := ListEnviron("X={a,b}")
	cfg := Config{
		Env:   env,
		Flags: Flags{DisableTilde: true, DisableFilename: true},
	}
	got, ok := Fields("$X", cfg)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, got, qt.DeepEquals, []string{"a", "b"})
}

func TestFieldsBraceThenVariableOnLiteralBraces(t *testing.T) {
	t.Parallel()
	env := ListEnviron("X=mid")
	cfg := Config{
		Env:   env,
		Flags: Flags{DisableTilde: true, DisableFilename: true},
	}
	got, ok := Fields("pre{$X,other}post", cfg)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, got, qt.DeepEquals, []string{"premidpost", "preotherpost"})
}

func TestFieldsDisabledStagesAreSkipped(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Env:   ListEnviron(),
		Flags: Flags{DisableVariable: true, DisableTilde: true, DisableBrace: true, DisableFilename: true},
	}
	got, ok := Fields("$HOME{a,b}", cfg)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, got, qt.DeepEquals, []string{"$HOME{a,b}"})
}

func TestFieldsAbortPropagates(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Env:   ListEnviron(),
		Flags: Flags{DisableTilde: true, DisableFilename: true},
	}
	got, ok := Fields("${NAME:?required}", cfg)
	qt.Assert(t, ok, qt.IsFalse)
	qt.Assert(t, got, qt.IsNil)
}
