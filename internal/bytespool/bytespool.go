// Package bytespool reuses byte buffers for file payloads.
package bytespool

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// With reads r into a pooled buffer and hands the bytes to fn. The slice is
// only valid until fn returns.
func With(r io.Reader, fn func(b []byte) error) error {
	buf := pool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		pool.Put(buf)
	}()

	if _, err := buf.ReadFrom(r); err != nil {
		return fmt.Errorf("read: %w", err)
	}

	return fn(buf.Bytes())
}
