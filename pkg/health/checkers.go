package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// CatalogCheck fails when load fails, discarding the loaded value.
func CatalogCheck[T any](load func(ctx context.Context) (T, error)) CheckFunc {
	return func(ctx context.Context) error {
		_, err := load(ctx)
		return err
	}
}
