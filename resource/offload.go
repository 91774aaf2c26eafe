package resource

import "context"

// Offload runs fn on its own goroutine inside a CPU worker slot and waits for
// the result. It keeps CPU-bound work off the caller's goroutine budget and
// bounds how many such jobs run at once.
//
// A panic in fn is re-raised on the calling goroutine.
func Offload[T any](ctx context.Context, c *Controller, fn func() T) (T, error) {
	var zero T

	if err := c.AcquireCPU(ctx); err != nil {
		return zero, err
	}

	type result struct {
		val   T
		panic any
	}

	done := make(chan result, 1)

	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r.panic = p
			}
			c.ReleaseCPU()
			done <- r
		}()
		r.val = fn()
	}()

	r := <-done
	if r.panic != nil {
		panic(r.panic)
	}
	return r.val, nil
}
