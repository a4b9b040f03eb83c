// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// HistoryEntry is one recorded command line.
type HistoryEntry struct {
	Command   string
	Timestamp int64
}

// History is an index-based deque of HistoryEntry with a navigation cursor,
// a size limit, a backing file path, and a disabled flag (spec §3). A plain
// slice plays the role of the original's doubly-linked list (see SPEC_FULL.md
// §9 pointer-heavy-constructs note).
type History struct {
	entries []HistoryEntry
	cursor  int
	Limit   int
	Path    string
	Disabled bool
}

// NewHistory creates a History bound to path with the given entry limit (0
// means unlimited).
func NewHistory(path string, limit int) *History {
	return &History{Path: path, Limit: limit}
}

// Append records cmd at timestamp ts, trimming the oldest entry if Limit is
// exceeded. A no-op when Disabled.
func (h *History) Append(cmd string, ts int64) {
	if h.Disabled || cmd == "" {
		return
	}
	h.entries = append(h.entries, HistoryEntry{Command: cmd, Timestamp: ts})
	if h.Limit > 0 && len(h.entries) > h.Limit {
		h.entries = h.entries[len(h.entries)-h.Limit:]
	}
	h.ResetCursor()
}

// All returns every entry, oldest first.
func (h *History) All() []HistoryEntry { return append([]HistoryEntry(nil), h.entries...) }

// Len reports how many entries are recorded.
func (h *History) Len() int { return len(h.entries) }

// Clear removes every entry.
func (h *History) Clear() { h.entries = nil; h.ResetCursor() }

// ResetCursor moves the navigation cursor back past the newest entry,
// called at the start of every prompt cycle (spec §4.6).
func (h *History) ResetCursor() { h.cursor = len(h.entries) }

// Prev moves the cursor one entry back (towards older commands) and
// returns the command there, or ok=false if already at the oldest entry.
func (h *History) Prev() (string, bool) {
	if h.cursor <= 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor].Command, true
}

// Next moves the cursor one entry forward, or ok=false if already at the
// newest entry (past the end, i.e. an empty line).
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor].Command, true
}

// encodeCommand escapes embedded newlines as the literal two-byte sequence
// `\n`, per the history file format (spec §6).
func encodeCommand(cmd string) string {
	return strings.ReplaceAll(cmd, "\n", `\n`)
}

func decodeCommand(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// Save persists the history to h.Path atomically via renameio, so a crash
// mid-write never truncates the existing file.
func (h *History) Save() error {
	if h.Path == "" {
		return nil
	}
	var sb strings.Builder
	for _, e := range h.entries {
		fmt.Fprintf(&sb, "%d,%s\n", e.Timestamp, encodeCommand(e.Command))
	}
	return renameio.WriteFile(h.Path, []byte(sb.String()), 0o600)
}

// Load reads the history file at h.Path. The parser is tolerant: only the
// first comma on a line splits the timestamp from the body (spec §6), and
// a missing file is not an error.
func (h *History) Load() error {
	f, err := os.Open(h.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.IndexByte(line, ',')
		if idx < 0 {
			continue
		}
		ts, err := strconv.ParseInt(line[:idx], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{Command: decodeCommand(line[idx+1:]), Timestamp: ts})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	h.entries = entries
	h.ResetCursor()
	return nil
}
