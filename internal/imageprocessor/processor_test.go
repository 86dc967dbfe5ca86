package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFit_Thumbnail(t *testing.T) {
	img, format, err := Decode(bytes.NewReader(samplePNG(t, 600, 300)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	res, err := NewProcessor(80).Fit(img, format, SizeThumbnail)
	require.NoError(t, err)
	assert.Equal(t, 150, res.Width)
	assert.Equal(t, 75, res.Height)
	assert.Equal(t, "image/png", res.ContentType)
	assert.NotEmpty(t, res.Data)
}

func TestFit_KeepsSmallImages(t *testing.T) {
	img, format, err := Decode(bytes.NewReader(samplePNG(t, 100, 80)))
	require.NoError(t, err)

	res, err := NewProcessor(0).Fit(img, "jpeg", SizeThumbnail)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, ".png", Extension(format))
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, _, err := Decode(strings.NewReader("not an image"))
	assert.Error(t, err)
}
