package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.NRGBA) image.Image {
	img := imaging.New(w, h, c)
	return img
}

func testPipeline() *Pipeline {
	return NewPipeline(Config{
		MinWidth:     100,
		MinHeight:    100,
		MaxDimension: 400,
		JPEGQuality:  85,
	})
}

func TestPrepareRejectsOversizedFile(t *testing.T) {
	p := NewPipeline(Config{MaxFileSize: 10})
	data := encodePNG(t, solidImage(10, 10, color.NRGBA{R: 255, A: 255}))

	_, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPrepareRejectsNonImage(t *testing.T) {
	p := testPipeline()
	_, err := p.Prepare(bytes.NewReader([]byte("not an image")), 12, Options{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPrepareRejectsTooSmall(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(99, 200, color.NRGBA{G: 255, A: 255}))

	_, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPrepareNeverUpscales(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(150, 120, color.NRGBA{B: 255, A: 255}))

	out, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 150 || out.Height != 120 {
		t.Errorf("dimensions = %dx%d, want untouched 150x120", out.Width, out.Height)
	}
	if out.ContentType != "image/jpeg" {
		t.Errorf("content type = %s, want image/jpeg", out.ContentType)
	}
}

func TestPrepareDownscalesPreservingAspect(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(800, 400, color.NRGBA{R: 128, A: 255}))

	out, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 400 || out.Height != 200 {
		t.Errorf("dimensions = %dx%d, want 400x200", out.Width, out.Height)
	}
}

func TestPrepareIdentityCropPreservesDimensions(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(200, 160, color.NRGBA{R: 200, G: 100, A: 255}))

	out, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{
		Crop: &CropRect{X: 0, Y: 0, Width: 200, Height: 160},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 200 || out.Height != 160 {
		t.Errorf("dimensions = %dx%d, want 200x160", out.Width, out.Height)
	}
}

func TestRotateAndCropIdentityPixels(t *testing.T) {
	// The identity selection at rotation 0 must read back the exact source
	// pixels for both even and odd side lengths. Odd sides land off-center on
	// the even safe-area canvas, so any mismatch between the paste position
	// and the read-back offset shows up here as a shifted edge.
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for _, side := range []int{100, 101, 103, 105, 107} {
		src := imaging.New(side, side, white)

		out, err := rotateAndCrop(src, 0, CropRect{X: 0, Y: 0, Width: side, Height: side})
		if err != nil {
			t.Fatalf("side %d: unexpected error: %v", side, err)
		}
		if out.Bounds().Dx() != side || out.Bounds().Dy() != side {
			t.Fatalf("side %d: dimensions = %dx%d, want %dx%d",
				side, out.Bounds().Dx(), out.Bounds().Dy(), side, side)
		}
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				if got := out.NRGBAAt(x, y); got != white {
					t.Fatalf("side %d: pixel (%d,%d) = %v, want %v", side, x, y, got, white)
				}
			}
		}
	}
}

func TestPrepareCropSubregion(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(300, 300, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))

	out, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{
		Crop: &CropRect{X: 50, Y: 60, Width: 120, Height: 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 120 || out.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 120x100", out.Width, out.Height)
	}
}

func TestPrepareCropWithRotation(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(200, 200, color.NRGBA{R: 255, G: 255, A: 255}))

	// A centered selection survives any rotation of a square source.
	out, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{
		Crop:     &CropRect{X: 50, Y: 50, Width: 100, Height: 100},
		Rotation: 90,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Width != 100 || out.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 100x100", out.Width, out.Height)
	}
}

func TestPrepareCropOutsideImage(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(200, 200, color.NRGBA{A: 255}))

	_, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{
		Crop: &CropRect{X: 10000, Y: 10000, Width: 100, Height: 100},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPrepareEmptyCrop(t *testing.T) {
	p := testPipeline()
	data := encodePNG(t, solidImage(200, 200, color.NRGBA{A: 255}))

	_, err := p.Prepare(bytes.NewReader(data), int64(len(data)), Options{
		Crop: &CropRect{Width: 0, Height: 0},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
