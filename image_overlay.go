package main

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// overlayPadding is the margin around the text in unscaled pixels
const overlayPadding = 2

// DrawOverlay draws a station ID bar across the top or bottom of img.
// The text is rendered with a 7x13 bitmap font and scaled up by an integer
// factor; the factor is lowered when the text would not fit the width.
func DrawOverlay(img *image.RGBA, text string, oc OverlayConfig) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	fg, err := parseHexColor(oc.Color)
	if err != nil {
		return err
	}
	bg, err := parseHexColor(oc.Background)
	if err != nil {
		return err
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	tw := font.MeasureString(face, text).Ceil()
	th := metrics.Height.Ceil()

	layer := image.NewRGBA(image.Rect(0, 0, tw+2*overlayPadding, th+2*overlayPadding))
	draw.Draw(layer, layer.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(overlayPadding, overlayPadding+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	b := img.Bounds()
	scale := oc.Scale
	if scale < 1 {
		scale = 1
	}
	for scale > 1 && layer.Bounds().Dx()*scale > b.Dx() {
		scale--
	}
	sw, sh := layer.Bounds().Dx()*scale, layer.Bounds().Dy()*scale

	bar := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+sh)
	if oc.Position == "bottom" {
		bar = image.Rect(b.Min.X, b.Max.Y-sh, b.Max.X, b.Max.Y)
	}
	draw.Draw(img, bar, image.NewUniform(bg), image.Point{}, draw.Src)

	// text wider than the image is cut at the right edge, not squeezed
	srcRect := layer.Bounds()
	if sw > bar.Dx() {
		srcRect.Max.X = bar.Dx() / scale
		sw = srcRect.Dx() * scale
	}
	x := bar.Min.X + (bar.Dx()-sw)/2
	target := image.Rect(x, bar.Min.Y, x+sw, bar.Max.Y)
	draw.NearestNeighbor.Scale(img, target, layer, srcRect, draw.Src, nil)
	return nil
}

// parseHexColor parses #rrggbb
func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q (want #rrggbb)", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q (want #rrggbb)", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
