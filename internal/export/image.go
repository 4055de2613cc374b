package export

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/yuanying/manuscript/internal/book"
)

const (
	defaultCoverQuality  = 90
	defaultCoverMaxWidth = 1600
	defaultMaxPixels     = 100 * 1000 * 1000 // 100 megapixels
)

// preparedImage is an image re-encoded into a format gofpdf can embed.
type preparedImage struct {
	Data      []byte
	Width     int
	Height    int
	Format    imaging.Format
	MediaType string
}

// imageFitter shrinks images into a pixel box and re-encodes them. Images
// with transparency stay PNG; everything else becomes JPEG.
type imageFitter struct {
	MaxWidth    int // 0 means unbounded
	MaxHeight   int // 0 means unbounded
	JPEGQuality int
	MaxPixels   int
}

func (f imageFitter) prepare(data []byte) (preparedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return preparedImage{}, fmt.Errorf("decode image config: %w", err)
	}
	maxPixels := f.MaxPixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	if pixels := uint64(cfg.Width) * uint64(cfg.Height); pixels > uint64(maxPixels) {
		return preparedImage{}, fmt.Errorf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return preparedImage{}, fmt.Errorf("decode image: %w", err)
	}

	processed := src
	b := src.Bounds()
	maxW, maxH := f.MaxWidth, f.MaxHeight
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	if b.Dx() > maxW || b.Dy() > maxH {
		processed = imaging.Fit(src, maxW, maxH, imaging.Lanczos)
	}

	quality := f.JPEGQuality
	if quality <= 0 {
		quality = defaultCoverQuality
	}
	if quality > 100 {
		quality = 100
	}

	out := preparedImage{
		Width:     processed.Bounds().Dx(),
		Height:    processed.Bounds().Dy(),
		Format:    imaging.JPEG,
		MediaType: "image/jpeg",
	}
	if hasAlpha(processed) {
		out.Format = imaging.PNG
		out.MediaType = "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, out.Format, imaging.JPEGQuality(quality)); err != nil {
		return preparedImage{}, fmt.Errorf("encode %s: %w", strings.ToLower(out.Format.String()), err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// PrepareCover decodes a user-supplied cover image, shrinks it to at most
// maxWidth pixels wide and re-encodes it as JPEG (PNG when it has
// transparency). A non-positive maxWidth or quality selects the default.
func PrepareCover(data []byte, maxWidth, quality int) (*book.Cover, error) {
	if maxWidth <= 0 {
		maxWidth = defaultCoverMaxWidth
	}
	img, err := imageFitter{MaxWidth: maxWidth, JPEGQuality: quality}.prepare(data)
	if err != nil {
		return nil, fmt.Errorf("prepare cover: %w", err)
	}
	return &book.Cover{Data: img.Data, MediaType: img.MediaType}, nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
