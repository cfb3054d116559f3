package store

import (
	"context"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	t.Run("attaches default deadline", func(t *testing.T) {
		p := NewPostgres(nil, 5*time.Second)

		ctx, cancel := p.withTimeout(context.Background())
		defer cancel()

		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatal("no deadline attached")
		}
		if remaining := time.Until(dl); remaining > 5*time.Second || remaining <= 0 {
			t.Errorf("deadline %v out of range", remaining)
		}
	})

	t.Run("caller deadline wins", func(t *testing.T) {
		p := NewPostgres(nil, 5*time.Second)

		parent, parentCancel := context.WithTimeout(context.Background(), time.Minute)
		defer parentCancel()

		ctx, cancel := p.withTimeout(parent)
		defer cancel()

		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatal("no deadline on context")
		}
		if time.Until(dl) <= 5*time.Second {
			t.Errorf("caller deadline was shortened to %v", time.Until(dl))
		}
	})

	t.Run("zero timeout leaves context untouched", func(t *testing.T) {
		p := NewPostgres(nil, 0)

		ctx, cancel := p.withTimeout(context.Background())
		defer cancel()

		if _, ok := ctx.Deadline(); ok {
			t.Error("deadline attached with timeout disabled")
		}
	})
}
