// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package concatfix repairs PDF files made by appending one complete PDF
// document to another.
//
// # Overview
//
// Such a file carries two %PDF- headers, two classic cross-reference tables,
// two trailers and two startxref pointers. The offsets in the second table,
// and its startxref value, were computed for the second document on its own,
// so they are short by the length of the first document. Readers follow the
// last startxref, land in the middle of the first document and fail.
//
// IsFixable checks that a buffer has that shape. Fix adds the offset of the
// last header to every entry of the last xref table, writes the table back
// with its fixed-width layout and points the last startxref at it.
//
// Only the header, xref, trailer and startxref markers are inspected. Cross
// reference streams (PDF 1.5 compressed xref) are not recognised.
package concatfix

import (
	"fmt"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

// IsFixable reports whether buf looks like two or more concatenated
// documents with one classic xref table per trailer. It never fails.
func IsFixable(buf []byte) bool {
	if n := len(FindHeaders(buf)); n < 2 {
		logger.Debug(fmt.Sprintf("not fixable: headers=%d", n), true)
		return false
	}
	xrefs := len(FindXrefMarkers(buf))
	if xrefs < 2 {
		logger.Debug(fmt.Sprintf("not fixable: xref markers=%d", xrefs), true)
		return false
	}
	if trailers := len(FindTrailerMarkers(buf)); xrefs != trailers {
		logger.Debug(fmt.Sprintf("not fixable: xref markers=%d trailer markers=%d", xrefs, trailers), true)
		return false
	}
	return true
}

// Repairer rewrites the last xref table and startxref value of a buffer.
// It holds no state between calls and may be shared across goroutines.
type Repairer struct {
	mode PatchMode
}

// NewRepairer returns a Repairer using mode; an unknown mode falls back to PatchRange.
func NewRepairer(mode PatchMode) *Repairer {
	if mode != PatchContent {
		mode = PatchRange
	}
	return &Repairer{mode: mode}
}

// Fix repairs buf with range splicing. Callers must check IsFixable first.
func Fix(buf []byte) ([]byte, error) {
	return NewRepairer(PatchRange).Fix(buf)
}

// Fix returns a repaired copy of buf; buf itself is left untouched. Callers
// must check IsFixable first and must not persist anything when Fix fails.
func (r *Repairer) Fix(buf []byte) ([]byte, error) {
	out, _, err := r.fix(buf)
	return out, err
}

// FixWithReport is Fix plus a Report describing the input and the patch applied.
func (r *Repairer) FixWithReport(buf []byte) ([]byte, *Report, error) {
	rep, err := Inspect(buf)
	if err != nil {
		return nil, nil, err
	}
	out, res, err := r.fix(buf)
	if err != nil {
		return nil, rep, err
	}
	rep.Delta = res.delta
	rep.Entries = res.entries
	rep.NewStartxref = res.startxref
	rep.Repaired = true
	return out, rep, nil
}

type fixResult struct {
	delta     int64
	entries   int
	startxref int64
}

func (r *Repairer) fix(buf []byte) ([]byte, fixResult, error) {
	var res fixResult

	headers := FindHeaders(buf)
	if len(headers) == 0 {
		return nil, res, missingMarker(string(headerMarker))
	}
	if len(headers) > 2 {
		logger.Warn("more than two documents concatenated; only the last boundary is repaired", "headers", len(headers))
	}
	res.delta = int64(headers[len(headers)-1])

	tables, err := AllXrefTables(buf)
	if err != nil {
		return nil, res, err
	}
	if len(tables) == 0 {
		return nil, res, missingMarker(string(xrefKeyword))
	}
	table, err := DeserializeXrefTable(tables[len(tables)-1])
	if err != nil {
		return nil, res, err
	}
	res.entries = len(table.Entries)

	patched := table.ApplyOffset(res.delta)
	out, err := ReplaceLastTable(buf, patched.Serialize(), r.mode)
	if err != nil {
		return nil, res, err
	}

	xrefs := FindXrefMarkers(out)
	if len(xrefs) == 0 {
		return nil, res, missingMarker(string(xrefKeyword))
	}
	res.startxref = int64(xrefs[len(xrefs)-1])

	out, err = ReplaceLastStartxrefValue(out, res.startxref, r.mode)
	if err != nil {
		return nil, res, err
	}

	logger.Debug(fmt.Sprintf("repair done: delta=%d entries=%d startxref=%d", res.delta, res.entries, res.startxref), true)
	return out, res, nil
}
