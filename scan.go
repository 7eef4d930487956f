// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

// PDF allows three end-of-line forms. Line-anchored markers are searched with
// each form in this order and the first form that matches anything wins.
var newlines = [][]byte{
	[]byte("\n"),
	[]byte("\r"),
	[]byte("\r\n"),
}

var (
	headerMarker     = []byte("%PDF-")
	xrefKeyword      = []byte("xref")
	trailerKeyword   = []byte("trailer")
	startxrefKeyword = []byte("startxref")
)

// span is a half-open byte range [start, end) within a buffer.
type span struct {
	start, end int
}

// findAll returns the offset of every non-overlapping occurrence of pattern
// in buf, each shifted by shift.
func findAll(buf, pattern []byte, shift int) []int {
	if len(pattern) == 0 {
		return nil
	}
	var result []int
	for i := 0; i < len(buf); {
		j := bytes.Index(buf[i:], pattern)
		if j < 0 {
			break
		}
		result = append(result, i+j+shift)
		i += j + len(pattern)
	}
	return result
}

// findLineMarkers returns the offset of the first letter of every keyword
// that starts a line. Encodings are never mixed within one search.
func findLineMarkers(buf, keyword []byte) []int {
	for _, nl := range newlines {
		pattern := make([]byte, 0, len(nl)+len(keyword))
		pattern = append(pattern, nl...)
		pattern = append(pattern, keyword...)
		if offsets := findAll(buf, pattern, len(nl)); len(offsets) > 0 {
			return offsets
		}
	}
	return nil
}

// FindHeaders returns the offset of every %PDF- header in buf.
func FindHeaders(buf []byte) []int {
	return findAll(buf, headerMarker, 0)
}

// FindXrefMarkers returns the offset of every xref keyword that starts a line.
func FindXrefMarkers(buf []byte) []int {
	return findLineMarkers(buf, xrefKeyword)
}

// FindTrailerMarkers returns the offset of every trailer keyword that starts a line.
func FindTrailerMarkers(buf []byte) []int {
	return findLineMarkers(buf, trailerKeyword)
}

func findStartxrefKeywords(buf []byte) []int {
	return findLineMarkers(buf, startxrefKeyword)
}

// FindStartxrefMarkers returns, for every startxref keyword, the offset of
// the first byte of the value on the following line.
func FindStartxrefMarkers(buf []byte) []int {
	keywords := findStartxrefKeywords(buf)
	result := make([]int, 0, len(keywords))
	for _, k := range keywords {
		pos := k + len(startxrefKeyword) + 1
		if pos < len(buf) && buf[pos] == '\n' {
			// second half of a CR+LF pair
			pos++
		}
		result = append(result, pos)
	}
	return result
}

// startxrefValueSpans locates the digits of every startxref value and
// decodes them. Both slices are in document order.
func startxrefValueSpans(buf []byte) ([]span, []int64, error) {
	markers := FindStartxrefMarkers(buf)
	spans := make([]span, 0, len(markers))
	values := make([]int64, 0, len(markers))
	for _, pos := range markers {
		end := endOfLine(buf, pos)
		v, err := parseDecimal(buf[min(pos, end):end], pos)
		if err != nil {
			return nil, nil, err
		}
		spans = append(spans, span{pos, end})
		values = append(values, v)
	}
	return spans, values, nil
}

// StartxrefValues decodes the byte offset written after every startxref keyword.
func StartxrefValues(buf []byte) ([]int64, error) {
	_, values, err := startxrefValueSpans(buf)
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("startxref values: %v", values), true)
	return values, nil
}

// endOfLine returns the offset of the first CR or LF at or after pos, or
// len(buf) when neither occurs.
func endOfLine(buf []byte, pos int) int {
	if pos >= len(buf) {
		return len(buf)
	}
	i := bytes.IndexAny(buf[pos:], "\r\n")
	if i < 0 {
		return len(buf)
	}
	return pos + i
}

// parseDecimal accepts only ASCII digits; signs, spaces and empty input are rejected.
func parseDecimal(b []byte, offset int) (int64, error) {
	if len(b) == 0 {
		return 0, badNumber("", offset)
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, badNumber(string(b), offset)
		}
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, badNumber(string(b), offset)
	}
	return v, nil
}

// HeaderVersions returns the version that follows each %PDF- header, e.g.
// "1.7". An empty string is reported for a header with no version digits.
func HeaderVersions(buf []byte) []string {
	headers := FindHeaders(buf)
	versions := make([]string, 0, len(headers))
	for _, h := range headers {
		start := h + len(headerMarker)
		end := start
		for end < len(buf) && end-start < 8 && (buf[end] == '.' || (buf[end] >= '0' && buf[end] <= '9')) {
			end++
		}
		versions = append(versions, string(buf[start:end]))
	}
	return versions
}
