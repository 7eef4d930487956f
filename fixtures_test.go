// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// doc is a single-document PDF built by buildDoc together with the offsets
// written into it.
type doc struct {
	data      []byte
	objects   []int64 // byte offset of objects 1..3 within data
	xref      int     // offset of the xref keyword within data
	trailer   int     // offset of the trailer keyword within data
	startxref int     // offset of the first startxref digit within data
}

// entryTail is the 20-byte-entry ending PDF writers use for each terminator.
func entryTail(eol string) string {
	if eol == "\r\n" {
		return "\r\n"
	}
	return " " + eol
}

// buildDoc writes a three-object PDF using eol as line terminator. Every
// offset recorded in its xref table and startxref value is increased by base,
// as if the document had been written after base bytes of another file.
// title varies the object sizes between documents.
func buildDoc(eol string, base int64, title string) doc {
	buf := &bytes.Buffer{}
	line := func(s string) { buf.WriteString(s + eol) }

	line("%PDF-1.7")
	var d doc

	d.objects = append(d.objects, int64(buf.Len()))
	line("1 0 obj")
	line("<< /Type /Catalog /Pages 2 0 R >>")
	line("endobj")

	d.objects = append(d.objects, int64(buf.Len()))
	line("2 0 obj")
	line("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	line("endobj")

	d.objects = append(d.objects, int64(buf.Len()))
	line("3 0 obj")
	line(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Title (%s) >>", title))
	line("endobj")

	d.xref = buf.Len()
	line("xref")
	line("0 4")
	fmt.Fprintf(buf, "%010d 65535 f%s", base, entryTail(eol))
	for _, off := range d.objects {
		fmt.Fprintf(buf, "%010d 00000 n%s", off+base, entryTail(eol))
	}
	d.trailer = buf.Len()
	line("trailer")
	line("<< /Size 4 /Root 1 0 R >>")
	line("startxref")
	d.startxref = buf.Len()
	line(fmt.Sprintf("%d", int64(d.xref)+base))
	line("%%EOF")

	d.data = buf.Bytes()
	return d
}

// xrefText returns the table text of d, from the xref keyword up to trailer.
func (d doc) xrefText() string {
	return string(d.data[d.xref:d.trailer])
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// concatenated returns two documents appended byte for byte, and the
// buffer Fix is expected to turn them into.
func concatenated(eol string) (broken, want []byte) {
	a := buildDoc(eol, 0, "first")
	b := buildDoc(eol, 0, "second document")
	fixedB := buildDoc(eol, int64(len(a.data)), "second document")
	return concat(a.data, b.data), concat(a.data, fixedB.data)
}

// writeTempPDF writes data into a fresh temp dir and returns its path.
func writeTempPDF(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
