// Package media implements the image intake pipeline: validate, crop,
// optimize, upload. The first three stages are pure and synchronous; only
// the upload stage touches the network.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// ValidationError is a terminal, user-facing input rejection. The user picks
// a different file; there is nothing to retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CropRect is a pixel selection relative to the (possibly rotated) source
// image, with the source's top-left as origin.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Config bounds the pipeline's input and output.
type Config struct {
	MaxFileSize  int64 // bytes; 0 disables the ceiling
	MinWidth     int   // px; 0 disables the minimum
	MinHeight    int
	MaxDimension int // px; output never exceeds this on either axis
	JPEGQuality  int // 1..100
}

// Prepared is the processed blob ready for upload. It stays valid after an
// upload failure so the transfer can be retried without re-processing.
type Prepared struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Options select the optional crop stage.
type Options struct {
	Crop     *CropRect
	Rotation float64 // degrees, clockwise
}

// Pipeline validates, crops and optimizes images per its config.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 1920
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	return &Pipeline{cfg: cfg}
}

// Prepare runs the validate, crop and optimize stages over a source image.
// All failures before the returned blob are *ValidationError; anything else
// is an internal processing fault.
func (p *Pipeline) Prepare(r io.Reader, size int64, opts Options) (*Prepared, error) {
	if p.cfg.MaxFileSize > 0 && size > p.cfg.MaxFileSize {
		return nil, &ValidationError{Reason: fmt.Sprintf("file exceeds the %dMB limit", p.cfg.MaxFileSize/(1024*1024))}
	}

	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ValidationError{Reason: "file is not a readable image"}
	}

	b := src.Bounds()
	if p.cfg.MinWidth > 0 && (b.Dx() < p.cfg.MinWidth || b.Dy() < p.cfg.MinHeight) {
		return nil, &ValidationError{Reason: fmt.Sprintf("image must be at least %dx%d pixels", p.cfg.MinWidth, p.cfg.MinHeight)}
	}

	img := src
	if opts.Crop != nil {
		cropped, err := rotateAndCrop(src, opts.Rotation, *opts.Crop)
		if err != nil {
			return nil, err
		}
		img = cropped
	}

	img = p.downscale(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	ob := img.Bounds()
	return &Prepared{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       ob.Dx(),
		Height:      ob.Dy(),
	}, nil
}

// downscale shrinks the image so neither dimension exceeds MaxDimension,
// preserving aspect ratio. It never upscales.
func (p *Pipeline) downscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.cfg.MaxDimension && b.Dy() <= p.cfg.MaxDimension {
		return img
	}
	return imaging.Fit(img, p.cfg.MaxDimension, p.cfg.MaxDimension, imaging.Lanczos)
}

// rotateAndCrop extracts the crop rectangle from the rotated source using a
// square safe-area canvas sized to the source diagonal, so rotation never
// clips content. The source is drawn rotated about the canvas center and the
// rectangle is read back relative to the source's centered position, which
// makes the identity rectangle at rotation 0 pixel-preserving.
func rotateAndCrop(src image.Image, rotation float64, rect CropRect) (*image.NRGBA, error) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return nil, &ValidationError{Reason: "crop selection is empty"}
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	maxSide := w
	if h > maxSide {
		maxSide = h
	}
	safe := int(math.Ceil(2 * (float64(maxSide) / 2) * math.Sqrt2))

	canvas := imaging.New(safe, safe, color.NRGBA{})
	// imaging rotates counter-clockwise for positive angles; the selection
	// rotation is clockwise.
	rotated := imaging.Rotate(src, -rotation, color.NRGBA{})
	canvas = imaging.PasteCenter(canvas, rotated)

	// PasteCenter places the image at (safe/2 - w/2, safe/2 - h/2), which is
	// not (safe-w)/2 when safe is even and the dimension odd. The read-back
	// offset must mirror the paste position exactly or every crop shifts by
	// one pixel. The selection is relative to the rotated image.
	rb := rotated.Bounds()
	px := safe/2 - rb.Dx()/2
	py := safe/2 - rb.Dy()/2

	x0 := px + rect.X
	y0 := py + rect.Y
	out := imaging.Crop(canvas, image.Rect(x0, y0, x0+rect.Width, y0+rect.Height))
	if out.Bounds().Dx() != rect.Width || out.Bounds().Dy() != rect.Height {
		return nil, &ValidationError{Reason: "crop selection is outside the image"}
	}
	return out, nil
}
