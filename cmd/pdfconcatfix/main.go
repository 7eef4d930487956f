// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	concatfix "github.com/sassoftware/viya-pdf-concatfix"
	"github.com/sassoftware/viya-pdf-concatfix/logger"
	"github.com/sassoftware/viya-pdf-concatfix/tracer"
)

type options struct {
	in      string
	out     string
	check   bool
	report  bool
	verify  string
	patch   string
	debug   bool
	timeout time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfconcatfix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfconcatfix [flags] input.pdf [output.pdf]\n")
		fs.PrintDefaults()
	}
	fs.BoolVar(&opts.check, "check", false, "Only report whether the input is fixable")
	fs.BoolVar(&opts.report, "report", false, "Print a JSON repair report to stderr")
	fs.StringVar(&opts.verify, "verify", string(concatfix.VerifyOff), "Verify the repaired PDF: off, strict or best-effort")
	fs.StringVar(&opts.patch, "patch", string(concatfix.PatchRange), "How rewritten text is written back: range or content")
	fs.BoolVar(&opts.debug, "debug", false, "Log progress to stderr and dump the trace log on failure")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Deadline for the whole repair")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return options{}, errors.New("expected an input path and an optional output path")
	}
	opts.in = fs.Arg(0)
	if fs.NArg() == 2 {
		opts.out = fs.Arg(1)
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pdfconcatfix: %v\n", err)
		return 2
	}

	cfg := concatfix.NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 1
	cfg.WorkerTimeout = opts.timeout
	cfg.PatchMode = concatfix.PatchMode(opts.patch)
	cfg.VerifyMode = concatfix.VerifyMode(opts.verify)
	if opts.debug {
		cfg.Logger = logger.WriterFunc(stderr)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "pdfconcatfix: invalid flags: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	proc := concatfix.NewProcessor(cfg)

	if opts.check {
		rep, err := proc.Check(ctx, opts.in)
		if err != nil {
			return fail(stderr, opts, err)
		}
		if opts.report {
			_ = rep.WriteJSON(stderr)
		}
		if !rep.Fixable {
			fmt.Fprintf(stdout, "The specified PDF (%s) is not fixable\n", opts.in)
			return 0
		}
		fmt.Fprintf(stdout, "The specified PDF (%s) is fixable\n", opts.in)
		return 0
	}

	var rep *concatfix.Report
	if opts.out == "" {
		rep, err = proc.RepairTo(ctx, opts.in, stdout)
	} else {
		rep, err = proc.Repair(ctx, opts.in, opts.out)
	}
	if opts.report && rep != nil {
		_ = rep.WriteJSON(stderr)
	}
	if errors.Is(err, concatfix.ErrNotFixable) {
		fmt.Fprintf(stderr, "The specified PDF (%s) is not fixable\n", opts.in)
		return 0
	}
	if err != nil {
		return fail(stderr, opts, err)
	}
	if opts.out != "" {
		fmt.Fprintf(stderr, "output saved to %s\n", opts.out)
	}
	return 0
}

func fail(stderr io.Writer, opts options, err error) int {
	fmt.Fprintf(stderr, "pdfconcatfix: %v\n", err)
	if opts.debug {
		tracer.FlushTo(stderr)
	}
	return 1
}
