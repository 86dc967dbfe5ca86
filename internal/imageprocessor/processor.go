package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// ImageSize is a bounding box; images are scaled to fit it.
type ImageSize struct {
	Name   string
	Width  int
	Height int
}

var (
	SizeThumbnail = ImageSize{Name: "thumbnail", Width: 150, Height: 150}
	SizeLarge     = ImageSize{Name: "large", Width: 1600, Height: 1600}
)

// Processor decodes, resizes and re-encodes uploaded images.
type Processor struct {
	quality int // JPEG quality (1-100)
}

func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{quality: quality}
}

// Result is an encoded image ready for storage.
type Result struct {
	Data        []byte
	Format      string
	ContentType string
	Width       int
	Height      int
}

// Decode reads an image and reports its format ("jpeg" or "png").
func Decode(reader io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, "", fmt.Errorf("unsupported image format: %s", format)
	}
	return img, format, nil
}

// Fit scales img down to size, keeping the aspect ratio. Smaller images are kept as is.
func (p *Processor) Fit(img image.Image, format string, size ImageSize) (*Result, error) {
	out := img
	b := img.Bounds()
	if b.Dx() > size.Width || b.Dy() > size.Height {
		out = p.resize(img, size.Width, size.Height)
	}
	return p.encode(out, format)
}

func (p *Processor) encode(img image.Image, format string) (*Result, error) {
	var buf bytes.Buffer
	res := &Result{Format: format, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		res.Format = "jpeg"
		res.ContentType = "image/jpeg"
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
		res.ContentType = "image/png"
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	res.Data = buf.Bytes()
	return res, nil
}

func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())
	newWidth := maxWidth
	newHeight := maxHeight

	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Extension maps a decoded format to a file extension.
func Extension(format string) string {
	if format == "png" {
		return ".png"
	}
	return ".jpg"
}
