package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "/uploads/"})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "marketplace/item-1/a.jpg", strings.NewReader("data"), 4, "image/jpeg"))

	rc, err := s.Open(ctx, "marketplace/item-1/a.jpg")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "data", string(body))

	assert.Equal(t, "/uploads/marketplace/item-1/a.jpg", s.URL("marketplace/item-1/a.jpg"))

	require.NoError(t, s.Delete(ctx, "marketplace/item-1/a.jpg"))
	require.NoError(t, s.Delete(ctx, "marketplace/item-1/a.jpg"), "deleting twice is fine")
	_, err = s.Open(ctx, "marketplace/item-1/a.jpg")
	assert.Error(t, err)
}

func TestLocalStorage_StaysInBase(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	err = s.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}
