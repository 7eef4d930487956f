// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"fmt"
	"strings"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

const xrefKind = "xref"

// XrefEntry is one fixed-width line of a classic cross-reference table.
type XrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
}

// XrefTable is the parsed form of a single-subsection cross-reference table.
//
// EOL is the line terminator the table was read with and EntryTail is what
// follows the in-use flag on every entry line, terminator included. Both are
// reproduced by Serialize, so a table whose entries share one 2-byte ending
// round-trips byte for byte. The
// zero values select "\n" and " " followed by EOL. CR and CRLF tables are
// accepted as well as LF ones.
type XrefTable struct {
	Kind          string
	StartObjectID int
	Count         int
	Entries       []XrefEntry
	EOL           string
	EntryTail     string
}

func (t *XrefTable) eol() string {
	if t.EOL == "" {
		return "\n"
	}
	return t.EOL
}

func (t *XrefTable) entryTail() string {
	if validEntryTail(t.EntryTail) {
		return t.EntryTail
	}
	return " " + t.eol()
}

// validEntryTail reports whether tail completes a 20-byte entry line.
func validEntryTail(tail string) bool {
	switch tail {
	case " \n", " \r", "\r\n":
		return true
	}
	return false
}

// lineTail returns what follows the in-use flag of an entry line, eol included.
func lineTail(line, eol string) string {
	return line[len(strings.TrimRight(line, " \r")):] + eol
}

// detectEOL reports the first line terminator in text, defaulting to LF.
func detectEOL(text string) string {
	i := strings.IndexAny(text, "\r\n")
	if i < 0 || text[i] == '\n' {
		return "\n"
	}
	if i+1 < len(text) && text[i+1] == '\n' {
		return "\r\n"
	}
	return "\r"
}

// DeserializeXrefTable parses the text between an xref keyword and the
// following trailer keyword.
func DeserializeXrefTable(text string) (*XrefTable, error) {
	eol := detectEOL(text)
	lines := strings.Split(text, eol)
	if lines[len(lines)-1] == "" {
		// trailing terminator
		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 || lines[0] != xrefKind {
		token := ""
		if len(lines) > 0 {
			token = lines[0]
		}
		return nil, malformed(&MalformedInputError{Reason: ReasonUnexpectedKind, Token: token, Offset: -1})
	}
	if len(lines) < 2 {
		return nil, malformed(&MalformedInputError{Reason: ReasonBadSubsection, Offset: -1})
	}

	header := strings.Fields(lines[1])
	if len(header) != 2 {
		return nil, malformed(&MalformedInputError{Reason: ReasonBadSubsection, Token: lines[1], Offset: -1})
	}
	start, err := parseDecimal([]byte(header[0]), -1)
	if err != nil {
		return nil, err
	}
	count, err := parseDecimal([]byte(header[1]), -1)
	if err != nil {
		return nil, err
	}

	body := lines[2:]
	if int(count) != len(body) {
		return nil, malformed(&MalformedInputError{Reason: ReasonEntryCount, Expected: int(count), Actual: len(body), Offset: -1})
	}

	t := &XrefTable{
		Kind:          lines[0],
		StartObjectID: int(start),
		Count:         int(count),
		Entries:       make([]XrefEntry, 0, len(body)),
		EOL:           eol,
	}
	for i, line := range body {
		entry, err := parseXrefEntry(line)
		if err != nil {
			return nil, err
		}
		tail := lineTail(line, eol)
		switch {
		case !validEntryTail(tail):
			t.EntryTail = ""
		case i == 0:
			t.EntryTail = tail
		case tail != t.EntryTail:
			// mixed endings fall back to the default form
			t.EntryTail = ""
		}
		t.Entries = append(t.Entries, entry)
	}
	if len(body) > 0 && t.EntryTail == "" {
		logger.Debug(fmt.Sprintf("xref entry endings irregular, writing %q", t.entryTail()), true)
	}

	logger.Debug(fmt.Sprintf("xref table parsed: start=%d count=%d", t.StartObjectID, t.Count), true)
	return t, nil
}

func parseXrefEntry(line string) (XrefEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return XrefEntry{}, malformed(&MalformedInputError{Reason: ReasonBadEntry, Token: line, Offset: -1})
	}
	offset, err := parseDecimal([]byte(fields[0]), -1)
	if err != nil {
		return XrefEntry{}, err
	}
	gen, err := parseDecimal([]byte(fields[1]), -1)
	if err != nil {
		return XrefEntry{}, err
	}
	var inUse bool
	switch fields[2] {
	case "n":
		inUse = true
	case "f":
		inUse = false
	default:
		return XrefEntry{}, malformed(&MalformedInputError{Reason: ReasonBadFlag, Token: fields[2], Offset: -1})
	}
	return XrefEntry{Offset: offset, Generation: int(gen), InUse: inUse}, nil
}

// Serialize writes the table in the fixed-width form PDF readers expect:
// offsets padded to ten digits, generations to five. Entry lines end with
// EntryTail when it is one of " \n", " \r" or "\r\n", otherwise with a space
// and EOL.
func (t *XrefTable) Serialize() string {
	eol := t.eol()
	tail := t.entryTail()

	var b strings.Builder
	b.Grow(len(t.Kind) + 32 + len(t.Entries)*(18+len(tail)))
	b.WriteString(t.Kind)
	b.WriteString(eol)
	fmt.Fprintf(&b, "%d %d%s", t.StartObjectID, t.Count, eol)
	for _, e := range t.Entries {
		flag := 'f'
		if e.InUse {
			flag = 'n'
		}
		fmt.Fprintf(&b, "%010d %05d %c%s", e.Offset, e.Generation, flag, tail)
	}
	return b.String()
}

// ApplyOffset returns a copy of t with delta added to every entry offset.
// Free entries are shifted too; results are not checked against any buffer.
func (t *XrefTable) ApplyOffset(delta int64) *XrefTable {
	out := *t
	out.Entries = make([]XrefEntry, len(t.Entries))
	for i, e := range t.Entries {
		e.Offset += delta
		out.Entries[i] = e
	}
	return &out
}

// xrefSpans pairs every xref marker with the trailer marker that follows it.
func xrefSpans(buf []byte) ([]span, error) {
	xrefs := FindXrefMarkers(buf)
	trailers := FindTrailerMarkers(buf)
	if len(xrefs) != len(trailers) {
		return nil, countMismatch(len(xrefs), len(trailers))
	}
	spans := make([]span, len(xrefs))
	for i := range xrefs {
		if trailers[i] < xrefs[i] {
			return nil, malformed(&MalformedInputError{Reason: ReasonMarkerOrder, Expected: xrefs[i], Actual: trailers[i], Offset: trailers[i]})
		}
		spans[i] = span{xrefs[i], trailers[i]}
	}
	return spans, nil
}

// AllXrefTables returns the raw text of every xref table in document order.
func AllXrefTables(buf []byte) ([]string, error) {
	spans, err := xrefSpans(buf)
	if err != nil {
		return nil, err
	}
	tables := make([]string, len(spans))
	for i, s := range spans {
		tables[i] = string(buf[s.start:s.end])
	}
	logger.Debug(fmt.Sprintf("xref tables found: %d", len(tables)), true)
	return tables, nil
}
