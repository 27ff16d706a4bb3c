package imaging

import (
	"context"
	"sync/atomic"
)

// Aborter is the cancellation signal polled by Process before every row.
// Implementations must be safe for concurrent use.
type Aborter interface {
	Aborted() bool
}

// AbortFunc adapts a plain function to the Aborter interface.
type AbortFunc func() bool

// Aborted calls f.
func (f AbortFunc) Aborted() bool { return f() }

// Flag is a shared abort flag. The zero value is not aborted.
type Flag struct {
	v atomic.Bool
}

// Abort sets the flag. Workers stop before their next row.
func (f *Flag) Abort() { f.v.Store(true) }

// Aborted reports whether Abort has been called.
func (f *Flag) Aborted() bool { return f.v.Load() }

type contextAborter struct {
	ctx context.Context
}

func (c contextAborter) Aborted() bool { return c.ctx.Err() != nil }

// ContextAborter returns an Aborter that trips once ctx is done.
func ContextAborter(ctx context.Context) Aborter {
	return contextAborter{ctx: ctx}
}
