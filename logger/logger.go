// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sassoftware/viya-pdf-concatfix/tracer"
)

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

var (
	mu      sync.RWMutex
	logFunc LogFunc = func(level LogLevel, msg string, keyvals ...interface{}) {
	}
)

// SetLogger sets the global logger function
func SetLogger(f LogFunc) {
	if f != nil {
		mu.Lock()
		logFunc = f
		mu.Unlock()
	}
}

func current() LogFunc {
	mu.RLock()
	defer mu.RUnlock()
	return logFunc
}

// Debug logs a message at debug level
// If the last keyvals element is a bool and true, it is treated as trace flag
func Debug(msg string, keyvals ...interface{}) {
	trace := false
	if len(keyvals) > 0 {
		if b, ok := keyvals[len(keyvals)-1].(bool); ok {
			trace = b
			keyvals = keyvals[:len(keyvals)-1]
		}
	}
	current()(DebugLevel, msg, keyvals...)

	if trace {
		tracer.Log(msg)
	}
}

// Warn logs a message at warn level
func Warn(msg string, keyvals ...interface{}) {
	current()(WarnLevel, msg, keyvals...)
}

// Error logs a message at error level
func Error(msg string, keyvals ...interface{}) {
	current()(ErrorLevel, msg, keyvals...)
}

// WriterFunc returns a LogFunc that prints one line per message to w,
// e.g. "debug: slot acquired path=a.pdf".
func WriterFunc(w io.Writer) LogFunc {
	var wmu sync.Mutex
	return func(level LogLevel, msg string, keyvals ...interface{}) {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %s", level, msg)
		for i := 0; i+1 < len(keyvals); i += 2 {
			fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
		}
		if len(keyvals)%2 == 1 {
			fmt.Fprintf(&b, " %v", keyvals[len(keyvals)-1])
		}
		b.WriteByte('\n')
		wmu.Lock()
		io.WriteString(w, b.String())
		wmu.Unlock()
	}
}
