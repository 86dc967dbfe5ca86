package testhelpers

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"businessconnect_backend/internal/cache"
)

// NewTestRedis returns a cache client backed by an in-process redis server
// that is shut down with the test.
func NewTestRedis(t *testing.T) *cache.Client {
	t.Helper()
	return cache.New(miniredis.RunT(t).Addr(), "", 0)
}
