// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlushTo(t *testing.T) {
	FlushTo(&strings.Builder{})

	Log("first")
	Log("second")
	assert.Equal(t, []string{"first", "second"}, Messages())

	var out strings.Builder
	FlushTo(&out)
	assert.Equal(t, "first\nsecond\n", out.String())
	assert.Empty(t, Messages(), "flush must reset the trace log")
}

func TestLog_Concurrent(t *testing.T) {
	FlushTo(&strings.Builder{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Log("msg")
			}
		}()
	}
	wg.Wait()
	assert.Len(t, Messages(), 800)
	FlushTo(&strings.Builder{})
}

func TestLog_Bounded(t *testing.T) {
	FlushTo(&strings.Builder{})
	defer FlushTo(&strings.Builder{})

	for i := 0; i < MaxMessages+10; i++ {
		Log(fmt.Sprintf("msg %d", i))
	}
	msgs := Messages()
	assert.Len(t, msgs, MaxMessages)
	assert.Equal(t, "msg 10", msgs[0], "oldest messages are dropped first")
	assert.Equal(t, fmt.Sprintf("msg %d", MaxMessages+9), msgs[len(msgs)-1])
}
