// Package strpool reuses string builders for rendering.
package strpool

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Render runs fn with a pooled builder and returns what it wrote.
func Render(fn func(b *strings.Builder)) string {
	b := pool.Get().(*strings.Builder)
	defer func() {
		b.Reset()
		pool.Put(b)
	}()

	fn(b)
	return b.String()
}
