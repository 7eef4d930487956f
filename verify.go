// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sassoftware/viya-pdf-concatfix/logger"
)

// ErrVerification wraps a failure reported by the downstream PDF validator.
var ErrVerification = errors.New("repaired PDF failed verification")

// Verifier checks a repaired buffer the way a downstream PDF consumer would.
// It reports whether the buffer was accepted.
type Verifier interface {
	Verify(ctx context.Context, pdf []byte) (bool, error)
}

// StrictVerifier fails the repair when validation fails.
type StrictVerifier struct{}

func (s *StrictVerifier) Verify(ctx context.Context, pdf []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkLastSection(pdf); err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if err := validatePDF(pdf); err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return true, nil
}

// BestEffortVerifier logs validation failures and lets the repair through.
type BestEffortVerifier struct{}

func (b *BestEffortVerifier) Verify(ctx context.Context, pdf []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkLastSection(pdf); err != nil {
		logger.Debug("BestEffortVerifier: last xref section does not match the buffer, ignoring error", "err", err, true)
		return false, nil
	}
	if err := validatePDF(pdf); err != nil {
		// In best-effort mode, keep the repaired bytes anyway.
		logger.Debug("BestEffortVerifier: repaired PDF failed validation, ignoring error", "err", err, true)
		return false, nil
	}
	return true, nil
}

type nopVerifier struct{}

func (nopVerifier) Verify(context.Context, []byte) (bool, error) { return false, nil }

// NewVerifier selects the Verifier for mode.
func NewVerifier(mode VerifyMode) Verifier {
	switch mode {
	case VerifyStrict:
		return &StrictVerifier{}
	case VerifyBestEffort:
		return &BestEffortVerifier{}
	}
	return nopVerifier{}
}

// checkLastSection confirms that the last startxref points at the last xref
// keyword and that every in-use entry of the last table lands on its
// "<id> <gen> obj" header. pdfcpu rebuilds broken tables on its own, so it
// accepts unrepaired buffers too.
func checkLastSection(pdf []byte) error {
	values, err := StartxrefValues(pdf)
	if err != nil {
		return err
	}
	xrefs := FindXrefMarkers(pdf)
	if len(values) == 0 || len(xrefs) == 0 {
		return errors.New("no xref section found")
	}
	last := int64(xrefs[len(xrefs)-1])
	if got := values[len(values)-1]; got != last {
		return fmt.Errorf("startxref is %d, last xref table is at %d", got, last)
	}

	tables, err := AllXrefTables(pdf)
	if err != nil {
		return err
	}
	table, err := DeserializeXrefTable(tables[len(tables)-1])
	if err != nil {
		return err
	}
	for i, e := range table.Entries {
		if !e.InUse {
			continue
		}
		id := table.StartObjectID + i
		want := []byte(fmt.Sprintf("%d %d obj", id, e.Generation))
		if e.Offset < 0 || e.Offset >= int64(len(pdf)) || !bytes.HasPrefix(pdf[e.Offset:], want) {
			return fmt.Errorf("object %d %d: entry offset %d does not point at its header", id, e.Generation, e.Offset)
		}
	}
	return nil
}

var disableConfigDir sync.Once

func validatePDF(pdf []byte) error {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(pdf), conf)
}
