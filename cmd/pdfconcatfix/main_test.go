// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	concatfix "github.com/sassoftware/viya-pdf-concatfix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimplePDF(title string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 /Title (%s) >>\nendobj\n", title))

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 3\n")
	buf.WriteString("0000000000 65535 f \n")
	buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off1))
	buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off2))
	buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	buf.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOffset))
	return buf.Bytes()
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func brokenPDF() []byte {
	return append(buildSimplePDF("one"), buildSimplePDF("two")...)
}

func TestRun_ToStdout(t *testing.T) {
	broken := brokenPDF()
	in := writeInput(t, broken)
	want, err := concatfix.Fix(broken)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	code := run([]string{in}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, want, stdout.Bytes(), "stdout must carry the repaired bytes verbatim")
}

func TestRun_ToFile(t *testing.T) {
	in := writeInput(t, brokenPDF())
	out := filepath.Join(t.TempDir(), "out.pdf")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-report", in, out}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, out)
	assert.Contains(t, stderr.String(), "output saved to "+out)
	assert.Contains(t, stderr.String(), `"repaired": true`)
	assert.Empty(t, stdout.String())
}

func TestRun_NotFixable(t *testing.T) {
	in := writeInput(t, buildSimplePDF("alone"))

	var stdout, stderr bytes.Buffer
	code := run([]string{in}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "is not fixable")
}

func TestRun_Check(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-check", writeInput(t, brokenPDF())}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "is fixable")

	stdout.Reset()
	code = run([]string{"-check", writeInput(t, buildSimplePDF("alone"))}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "is not fixable")
}

func TestRun_Failures(t *testing.T) {
	cases := []struct {
		name string
		args []string
		code int
	}{
		{name: "no arguments", args: nil, code: 2},
		{name: "too many arguments", args: []string{"a", "b", "c"}, code: 2},
		{name: "unknown patch mode", args: []string{"-patch", "sideways", "a.pdf"}, code: 2},
		{name: "unknown verify mode", args: []string{"-verify", "maybe", "a.pdf"}, code: 2},
		{name: "missing input", args: []string{"-debug", filepath.Join(os.TempDir(), "does-not-exist.pdf")}, code: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tc.code, run(tc.args, &stdout, &stderr))
			assert.Contains(t, stderr.String(), "pdfconcatfix")
		})
	}
}
