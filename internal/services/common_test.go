package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ NotificationService = (*NotificationServiceImpl)(nil)

func TestDetach(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		ran := false
		detach(context.Background(), false, "inline", func(ctx context.Context) error {
			ran = true
			return errors.New("logged, not returned")
		})
		assert.True(t, ran)
	})

	t.Run("outlives the request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		detach(ctx, true, "background", func(ctx context.Context) error {
			done <- ctx.Err()
			return nil
		})
		select {
		case err := <-done:
			require.NoError(t, err, "background work is not cancelled with the request")
		case <-time.After(2 * time.Second):
			t.Fatal("detached task never ran")
		}
	})
}

func TestCanonicalPhone(t *testing.T) {
	for _, in := range []string{"771234567", "+221 77 123 45 67", "00221771234567"} {
		assert.Equal(t, "771234567", canonicalPhone(in), in)
	}
}
