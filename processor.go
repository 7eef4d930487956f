// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package concatfix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sassoftware/viya-pdf-concatfix/logger"
	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotFixable is returned when a file does not have the concatenated-document shape.
	ErrNotFixable = errors.New("PDF is not fixable")
	// ErrInputTooLarge is returned when a file exceeds Config.MaxInputBytes.
	ErrInputTooLarge = errors.New("PDF exceeds the configured size limit")
)

// Processor defines the contract for repairing concatenated PDF files.
type Processor interface {
	Repair(ctx context.Context, in, out string) (*Report, error)
	RepairTo(ctx context.Context, in string, w io.Writer) (*Report, error)
	RepairBytes(ctx context.Context, buf []byte) ([]byte, *Report, error)
	Check(ctx context.Context, in string) (*Report, error)
	RepairAll(ctx context.Context, jobs []Job) []Result
}

// Job names one input file and the path its repaired copy is written to.
type Job struct {
	In  string
	Out string
}

// Result is the outcome of one Job.
type Result struct {
	Job    Job
	Report *Report
	Err    error
}

var _ Processor = (*processor)(nil)

// processor bounds the number of files repaired at once and delegates
// post-repair checks to the chosen Verifier.
type processor struct {
	cfg      *Config
	sem      *semaphore.Weighted
	repairer *Repairer
	verifier Verifier
}

// NewProcessor validates the config and creates a new processor.
// Selects the correct Verifier (off, strict or best-effort).
func NewProcessor(cfg *Config) *processor {
	//Validate the config object
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	//Set the logger function
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	} else if cfg.DebugOn {
		logger.SetLogger(logger.WriterFunc(os.Stderr))
	}

	logger.Debug(fmt.Sprintf("Processor initialized: patch_mode=%v, verify_mode=%v, max_concurrent_pdfs=%d",
		cfg.PatchMode, cfg.VerifyMode, cfg.MaxConcurrentPDFs), true)

	return &processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentPDFs)),
		repairer: NewRepairer(cfg.PatchMode),
		verifier: NewVerifier(cfg.VerifyMode),
	}
}

// Repair reads in, repairs it and writes the result to out. Nothing is
// written when the file is not fixable or the repair fails.
func (p *processor) Repair(ctx context.Context, in, out string) (*Report, error) {
	logger.Debug(fmt.Sprintf("Starting repair: in=%s out=%s", in, out), true)

	fixed, rep, err := p.repairFile(ctx, in)
	if err != nil {
		return rep, err
	}
	if err := os.WriteFile(out, fixed, 0o644); err != nil {
		logger.Error(fmt.Sprintf("failed to write repaired PDF: path=%s err=%v", out, err))
		return rep, fmt.Errorf("write %s: %w", out, err)
	}

	logger.Debug(fmt.Sprintf("Repair completed: in=%s out=%s size=%d", in, out, len(fixed)), true)
	return rep, nil
}

// RepairTo is Repair with the repaired bytes written verbatim to w.
func (p *processor) RepairTo(ctx context.Context, in string, w io.Writer) (*Report, error) {
	fixed, rep, err := p.repairFile(ctx, in)
	if err != nil {
		return rep, err
	}
	if _, err := w.Write(fixed); err != nil {
		return rep, fmt.Errorf("write output: %w", err)
	}
	return rep, nil
}

// Check inspects in without repairing it.
func (p *processor) Check(ctx context.Context, in string) (*Report, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	buf, err := p.load(in)
	if err != nil {
		return nil, err
	}
	return Inspect(buf)
}

// RepairBytes runs the gate, the repair and the configured verification on buf.
func (p *processor) RepairBytes(ctx context.Context, buf []byte) ([]byte, *Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.WorkerTimeout)
	defer cancel()

	if p.cfg.MaxInputBytes > 0 && int64(len(buf)) > p.cfg.MaxInputBytes {
		return nil, nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(buf), p.cfg.MaxInputBytes)
	}
	if !IsFixable(buf) {
		rep, err := Inspect(buf)
		if err != nil {
			logger.Debug(fmt.Sprintf("not fixable and not inspectable: err=%v", err), true)
			return nil, nil, fmt.Errorf("%w: %w", ErrNotFixable, err)
		}
		return nil, rep, ErrNotFixable
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	fixed, rep, err := p.repairer.FixWithReport(buf)
	if err != nil {
		return nil, rep, fmt.Errorf("repair: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	rep.Verified, err = p.verifier.Verify(ctx, fixed)
	if err != nil {
		return nil, rep, err
	}
	return fixed, rep, nil
}

// RepairAll repairs every job, at most MaxConcurrentPDFs at a time. One
// failing job does not stop the others.
func (p *processor) RepairAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			rep, err := p.Repair(ctx, job.In, job.Out)
			results[i] = Result{Job: job, Report: rep, Err: err}
			if err != nil {
				logger.Debug(fmt.Sprintf("Batch job failed: in=%s err=%v", job.In, err), true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *processor) repairFile(ctx context.Context, in string) ([]byte, *Report, error) {
	if err := p.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return nil, nil, err
	}
	defer p.sem.Release(1)
	logger.Debug(fmt.Sprintf("Slot acquired for repair: path=%s", in), true)

	buf, err := p.load(in)
	if err != nil {
		return nil, nil, err
	}
	return p.RepairBytes(ctx, buf)
}

// load maps the file and copies it into a buffer owned by the caller.
func (p *processor) load(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to open PDF: path=%s err=%v", path, err))
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	size := r.Len()
	if p.cfg.MaxInputBytes > 0 && int64(size) > p.cfg.MaxInputBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, size, p.cfg.MaxInputBytes)
	}
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug(fmt.Sprintf("document: file:%s -- loaded (size=%d)", path, size), true)
	return buf, nil
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}
