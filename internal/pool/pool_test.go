// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"bytes"
	"testing"
)

func TestBytesReset(t *testing.T) {
	buf := Bytes.Get()
	buf.WriteString("hello")
	Bytes.Put(buf)

	buf = Bytes.Get()
	defer Bytes.Put(buf)
	if buf.Len() != 0 {
		t.Errorf("pooled buffer has %d bytes, want 0", buf.Len())
	}
}

func TestPoolDropsLargeBuffers(t *testing.T) {
	p := New(func() *bytes.Buffer { return &bytes.Buffer{} })
	p.keep = func(b *bytes.Buffer) bool { return b.Cap() <= 8 }

	big := bytes.NewBuffer(make([]byte, 0, 16))
	big.WriteString("large")
	p.Put(big)
	if big.Len() == 0 {
		t.Error("Put() reset a buffer it should have dropped")
	}
}
