package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes any supported image file (jpeg, png, gif, bmp, tiff, webp)
func LoadImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, format, nil
}

// FitImage scales src to exactly width x height using the aspect mode:
//   - center:  crop the source to the target aspect ratio, then scale
//   - pad:     scale to fit inside the target, black bars on the remaining sides
//   - stretch: scale both axes independently
func FitImage(src image.Image, width, height int, aspect string) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, fmt.Errorf("image is empty")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	switch aspect {
	case aspectStretch:
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)

	case aspectCenter:
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, centerCrop(sb, width, height), draw.Src, nil)

	case aspectPad:
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		draw.CatmullRom.Scale(dst, letterbox(sb, width, height), src, sb, draw.Src, nil)

	default:
		return nil, fmt.Errorf("unknown aspect mode: %s", aspect)
	}

	return dst, nil
}

// centerCrop returns the largest centred region of r with the target aspect ratio
func centerCrop(r image.Rectangle, width, height int) image.Rectangle {
	sw, sh := r.Dx(), r.Dy()
	// Compare sw/sh with width/height without floating point
	if sw*height > sh*width {
		cw := sh * width / height
		x := r.Min.X + (sw-cw)/2
		return image.Rect(x, r.Min.Y, x+cw, r.Max.Y)
	}
	ch := sw * height / width
	y := r.Min.Y + (sh-ch)/2
	return image.Rect(r.Min.X, y, r.Max.X, y+ch)
}

// letterbox returns the centred region of a width x height canvas that
// holds r scaled to fit without distortion
func letterbox(r image.Rectangle, width, height int) image.Rectangle {
	sw, sh := r.Dx(), r.Dy()
	if sw*height > sh*width {
		h := sh * width / sw
		if h < 1 {
			h = 1
		}
		y := (height - h) / 2
		return image.Rect(0, y, width, y+h)
	}
	w := sw * height / sh
	if w < 1 {
		w = 1
	}
	x := (width - w) / 2
	return image.Rect(x, 0, x+w, height)
}

// IntermediatePath returns where the prepared image is kept for an output file
func IntermediatePath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_sstv.png"
}

// SavePNG writes img as a PNG file
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	log.Printf("[Image] Kept intermediate image: %s", path)
	return nil
}

// ImageSource exposes a prepared RGBA image to the encoder
type ImageSource struct {
	img *image.RGBA
}

// NewImageSource wraps img; its bounds must start at the origin
func NewImageSource(img *image.RGBA) *ImageSource {
	return &ImageSource{img: img}
}

// Bounds returns the image size
func (s *ImageSource) Bounds() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// RGB returns the pixel at (x, y), or black outside the image
func (s *ImageSource) RGB(x, y int) (uint8, uint8, uint8) {
	if !(image.Point{X: x, Y: y}.In(s.img.Rect)) {
		return 0, 0, 0
	}
	i := s.img.PixOffset(x, y)
	return s.img.Pix[i], s.img.Pix[i+1], s.img.Pix[i+2]
}
