// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

// FeatureFlags is a dense struct of booleans controlling which expansions
// and syntactic productions are enabled (spec §3). The zero value is
// "everything off"; NewFeatureFlags returns the usual "everything on"
// default.
type FeatureFlags struct {
	VariableExpansion bool
	TildeExpansion    bool
	BraceExpansion    bool
	FilenameExpansion bool
	AliasExpansion    bool

	JobControl    bool
	History       bool
	DirStack      bool
	Pipes         bool
	Redirections  bool
	Sequences     bool
	Subshells     bool
	CommandSub    bool
	Assignments   bool
	PromptExpand  bool
	Completion    bool
}

// NewFeatureFlags returns every flag enabled.
func NewFeatureFlags() FeatureFlags {
	return FeatureFlags{
		VariableExpansion: true,
		TildeExpansion:    true,
		BraceExpansion:    true,
		FilenameExpansion: true,
		AliasExpansion:    true,
		JobControl:        true,
		History:           true,
		DirStack:          true,
		Pipes:             true,
		Redirections:      true,
		Sequences:         true,
		Subshells:         true,
		CommandSub:        true,
		Assignments:       true,
		PromptExpand:      true,
		Completion:        true,
	}
}

// compileTimeDisables forces flags false regardless of what the `features`
// builtin sets at runtime — the Go equivalent of the original's
// compile-time feature selection (spec §9 design note). Empty by default;
// a build that wants to hard-disable a feature (e.g. a locked-down embed)
// sets fields here and relies on ApplyCompileTimeDisables being called
// after every mutation.
var compileTimeDisables FeatureFlags

// ApplyCompileTimeDisables forces off any flag that compileTimeDisables
// marks true. The `features` builtin must call this after every flag
// mutation it makes.
func (f *FeatureFlags) ApplyCompileTimeDisables() {
	if compileTimeDisables.VariableExpansion {
		f.VariableExpansion = false
	}
	if compileTimeDisables.TildeExpansion {
		f.TildeExpansion = false
	}
	if compileTimeDisables.BraceExpansion {
		f.BraceExpansion = false
	}
	if compileTimeDisables.FilenameExpansion {
		f.FilenameExpansion = false
	}
	if compileTimeDisables.AliasExpansion {
		f.AliasExpansion = false
	}
	if compileTimeDisables.JobControl {
		f.JobControl = false
	}
	if compileTimeDisables.History {
		f.History = false
	}
	if compileTimeDisables.DirStack {
		f.DirStack = false
	}
	if compileTimeDisables.Pipes {
		f.Pipes = false
	}
	if compileTimeDisables.Redirections {
		f.Redirections = false
	}
	if compileTimeDisables.Sequences {
		f.Sequences = false
	}
	if compileTimeDisables.Subshells {
		f.Subshells = false
	}
	if compileTimeDisables.CommandSub {
		f.CommandSub = false
	}
	if compileTimeDisables.Assignments {
		f.Assignments = false
	}
	if compileTimeDisables.PromptExpand {
		f.PromptExpand = false
	}
	if compileTimeDisables.Completion {
		f.Completion = false
	}
}
