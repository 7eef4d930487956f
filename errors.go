// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"errors"
	"fmt"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

// ErrMalformedInput is matched by every structural failure found while
// scanning, decoding or patching a buffer.
var ErrMalformedInput = errors.New("malformed PDF input")

// Reason names the structural expectation a MalformedInputError violated.
type Reason string

const (
	ReasonCountMismatch  Reason = "count-mismatch"
	ReasonUnexpectedKind Reason = "unexpected-kind"
	ReasonEntryCount     Reason = "entry-count"
	ReasonBadNumber      Reason = "bad-number"
	ReasonBadFlag        Reason = "bad-flag"
	ReasonBadSubsection  Reason = "bad-subsection"
	ReasonMissingMarker  Reason = "missing-marker"
	ReasonBadEntry       Reason = "bad-entry"
	ReasonMarkerOrder    Reason = "marker-order"
)

// MalformedInputError carries the data needed to diagnose a malformed buffer.
// Expected and Actual hold the two counts (or marker offsets) being compared,
// Token the text that failed to decode. Offset is -1 when unknown.
type MalformedInputError struct {
	Reason   Reason
	Expected int
	Actual   int
	Token    string
	Offset   int
}

func (e *MalformedInputError) Error() string {
	switch e.Reason {
	case ReasonCountMismatch:
		return fmt.Sprintf("malformed PDF: mismatch between the amount of xref and trailer entries (%d vs %d)", e.Expected, e.Actual)
	case ReasonUnexpectedKind:
		return fmt.Sprintf("malformed PDF: expected xref table, got %q", e.Token)
	case ReasonEntryCount:
		return fmt.Sprintf("malformed PDF: expected %d objects, got %d", e.Expected, e.Actual)
	case ReasonBadNumber:
		if e.Offset >= 0 {
			return fmt.Sprintf("malformed PDF: invalid number %q at offset %d", e.Token, e.Offset)
		}
		return fmt.Sprintf("malformed PDF: invalid number %q", e.Token)
	case ReasonBadFlag:
		return fmt.Sprintf("malformed PDF: invalid xref entry flag %q", e.Token)
	case ReasonBadSubsection:
		return fmt.Sprintf("malformed PDF: invalid xref subsection header %q", e.Token)
	case ReasonMissingMarker:
		return fmt.Sprintf("malformed PDF: missing %s marker", e.Token)
	case ReasonBadEntry:
		return fmt.Sprintf("malformed PDF: invalid xref entry %q", e.Token)
	case ReasonMarkerOrder:
		return fmt.Sprintf("malformed PDF: trailer at offset %d precedes xref at offset %d", e.Actual, e.Expected)
	}
	return "malformed PDF: " + string(e.Reason)
}

// Is lets errors.Is(err, ErrMalformedInput) match any MalformedInputError.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// malformed builds the error and logs it where it is raised.
func malformed(e *MalformedInputError) error {
	logger.Error(e.Error(), "reason", string(e.Reason))
	return e
}

func countMismatch(xrefs, trailers int) error {
	return malformed(&MalformedInputError{Reason: ReasonCountMismatch, Expected: xrefs, Actual: trailers, Offset: -1})
}

func badNumber(token string, offset int) error {
	return malformed(&MalformedInputError{Reason: ReasonBadNumber, Token: token, Offset: offset})
}

func missingMarker(name string) error {
	return malformed(&MalformedInputError{Reason: ReasonMissingMarker, Token: name, Offset: -1})
}
