package qrcanvas

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const fallbackSize = 200

var (
	fallbackBackground = color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
	fallbackText       = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	fallbackLines      = [...]string{"QR Code", "Unavailable", "Use Download Button"}
)

// fallbackBaselines are the y baselines of fallbackLines.
var fallbackBaselines = [...]int{90, 110, 130}

// drawFallback paints the placeholder shown instead of a symbol.
func drawFallback() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fallbackSize, fallbackSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(fallbackBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fallbackText),
		Face: basicfont.Face7x13,
	}
	center := fixed.I(fallbackSize / 2)
	for i, line := range fallbackLines {
		width := d.MeasureString(line)
		d.Dot = fixed.Point26_6{X: center - width/2, Y: fixed.I(fallbackBaselines[i])}
		d.DrawString(line)
	}
	return img
}
