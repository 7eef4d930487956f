// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

// PatchMode selects how rewritten text is put back into the buffer.
type PatchMode string

const (
	// PatchRange splices the exact byte range found while scanning.
	PatchRange PatchMode = "range"
	// PatchContent substitutes the last byte-identical occurrence of the old
	// text. An identical copy placed later in the file would be hit instead.
	PatchContent PatchMode = "content"
)

// splice returns a new buffer with buf[s.start:s.end] replaced by repl.
func splice(buf []byte, s span, repl []byte) []byte {
	out := make([]byte, 0, len(buf)-(s.end-s.start)+len(repl))
	out = append(out, buf[:s.start]...)
	out = append(out, repl...)
	out = append(out, buf[s.end:]...)
	return out
}

// replaceLast substitutes the last occurrence of old in buf. The returned
// buffer is a copy even when old is absent.
func replaceLast(buf, old, repl []byte) []byte {
	i := bytes.LastIndex(buf, old)
	if i < 0 {
		return bytes.Clone(buf)
	}
	return splice(buf, span{i, i + len(old)}, repl)
}

// ReplaceLastTable substitutes newTable for the text of the last xref table in buf.
func ReplaceLastTable(buf []byte, newTable string, mode PatchMode) ([]byte, error) {
	spans, err := xrefSpans(buf)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, missingMarker(string(xrefKeyword))
	}
	last := spans[len(spans)-1]
	logger.Debug(fmt.Sprintf("replacing xref table: mode=%s range=[%d,%d) new_len=%d", mode, last.start, last.end, len(newTable)), true)

	if mode == PatchContent {
		return replaceLast(buf, buf[last.start:last.end], []byte(newTable)), nil
	}
	return splice(buf, last, []byte(newTable)), nil
}

// ReplaceLastStartxrefValue rewrites the value of the last startxref keyword.
func ReplaceLastStartxrefValue(buf []byte, value int64, mode PatchMode) ([]byte, error) {
	spans, values, err := startxrefValueSpans(buf)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, missingMarker(string(startxrefKeyword))
	}
	last := spans[len(spans)-1]
	old := values[len(values)-1]
	repl := []byte(strconv.FormatInt(value, 10))
	logger.Debug(fmt.Sprintf("replacing startxref value: mode=%s old=%d new=%d", mode, old, value), true)

	if mode == PatchContent {
		return replaceLast(buf, []byte(strconv.FormatInt(old, 10)), repl), nil
	}
	return splice(buf, last, repl), nil
}
