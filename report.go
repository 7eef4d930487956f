// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"encoding/json"
	"io"
)

// Report describes the markers found in a buffer and, once repaired, the
// patch that was applied.
type Report struct {
	Documents       int      `json:"documents"`
	HeaderOffsets   []int    `json:"headerOffsets"`
	Versions        []string `json:"versions,omitempty"`
	XrefOffsets     []int    `json:"xrefOffsets"`
	TrailerOffsets  []int    `json:"trailerOffsets"`
	StartxrefValues []int64  `json:"startxrefValues"`
	Fixable         bool     `json:"fixable"`

	Repaired     bool  `json:"repaired"`
	Delta        int64 `json:"delta,omitempty"`
	Entries      int   `json:"entries,omitempty"`
	NewStartxref int64 `json:"newStartxref,omitempty"`
	Verified     bool  `json:"verified,omitempty"`
}

// Inspect scans buf without modifying it. It fails only when a startxref
// value cannot be decoded.
func Inspect(buf []byte) (*Report, error) {
	values, err := StartxrefValues(buf)
	if err != nil {
		return nil, err
	}
	headers := FindHeaders(buf)
	return &Report{
		Documents:       len(headers),
		HeaderOffsets:   headers,
		Versions:        HeaderVersions(buf),
		XrefOffsets:     FindXrefMarkers(buf),
		TrailerOffsets:  FindTrailerMarkers(buf),
		StartxrefValues: values,
		Fixable:         IsFixable(buf),
	}, nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
