package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var (
	DefaultRetry    = Retry{MinWait: 2, MaxWait: 16, MaxRetries: 5}
	ErrOutOfRetries = errors.New("tried too many times")
)

type Retry struct {
	MinWait    int // Min amount of time to sleep per iteration, in seconds
	MaxWait    int // Max amount of time to sleep per iteration, in seconds
	MaxRetries int // Number of times to retry
}

// Backoff returns how long to sleep before attempt i, growing exponentially from MinWait up to MaxWait with jitter.
func (r Retry) Backoff(i int) time.Duration {
	wait := r.MinWait
	for j := 0; j < i && wait < r.MaxWait; j++ {
		wait *= 2
	}
	if wait > r.MaxWait {
		wait = r.MaxWait
	}
	if wait <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(wait)*int64(time.Second)) + 1)
}

// RetryFunc calls f until it succeeds, shouldRetry returns false, the retries run out, or ctx is done.
func RetryFunc(ctx context.Context, f func(ctx context.Context) error, shouldRetry func(error) bool, r Retry) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if !shouldRetry(err) {
			return err
		}

		if i == r.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Backoff(i)):
		}
	}
	return errors.Join(ErrOutOfRetries, err)
}
