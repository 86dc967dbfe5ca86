package payment

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// IsRetryableError reports whether a gateway call may succeed if repeated.
// Provider-side 5xx and network blips are retryable; business refusals are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return isRetryableGatewayError(err) || isRetryableNetworkError(err) || isRetryableSystemError(err)
}

func isRetryableGatewayError(err error) bool {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return false
	}
	return gwErr.HTTPStatus >= 500 || gwErr.HTTPStatus == 429
}

func isRetryableNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRetryableSystemError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// withRetry runs fn up to attempts times with linear backoff.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !IsRetryableError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return err
}
