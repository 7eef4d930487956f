// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// MaxMessages bounds the trace log; the oldest messages are dropped first.
const MaxMessages = 4096

var (
	mu            sync.Mutex
	traceMessages []string
)

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	if len(traceMessages) >= MaxMessages {
		n := copy(traceMessages, traceMessages[len(traceMessages)-MaxMessages+1:])
		traceMessages = traceMessages[:n]
	}
	traceMessages = append(traceMessages, msg)
	mu.Unlock()
}

// Messages returns a copy of the accumulated trace log.
func Messages() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(traceMessages))
	copy(out, traceMessages)
	return out
}

// Flush prints the accumulated trace log to stdout and resets it.
func Flush() {
	FlushTo(os.Stdout)
}

// FlushTo writes the accumulated trace log to w and resets it.
func FlushTo(w io.Writer) {
	mu.Lock()
	msgs := traceMessages
	// reset so the next run starts fresh
	traceMessages = nil
	mu.Unlock()
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}
}
