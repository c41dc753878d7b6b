package qrcanvas

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"
)

// Style holds the cosmetic parameters of a rendered symbol.
type Style struct {
	Foreground   color.Color
	Background   color.Color
	CornerRadius float32 // 0 draws square modules
}

// DefaultStyle is black rounded modules on white.
var DefaultStyle = Style{
	Foreground:   color.Black,
	Background:   color.White,
	CornerRadius: 1,
}

// SurfaceSize is the side in pixels of a symbol with the given geometry.
func SurfaceSize(moduleCount, cellSize, margin int) int {
	return moduleCount*cellSize + 2*margin
}

// Draw fills dst with the background and paints every dark module as a
// cellSize square offset by margin. dst must be at least SurfaceSize on each side.
func (qr *QRCode) Draw(dst draw.Image, cellSize, margin int, style Style) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(style.Background), image.Point{}, draw.Src)

	radius := style.CornerRadius
	if radius < 0 {
		radius = 0
	}
	if half := float32(cellSize) / 2; radius > half {
		radius = half
	}

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	dark := false
	for r := 0; r < qr.Size; r++ {
		for c := 0; c < qr.Size; c++ {
			if !qr.Modules[r][c] {
				continue
			}
			x := float32(c*cellSize + margin)
			y := float32(r*cellSize + margin)
			roundRect(z, x, y, float32(cellSize), float32(cellSize), radius)
			dark = true
		}
	}
	if dark {
		z.Draw(dst, b, image.NewUniform(style.Foreground), image.Point{})
	}
}

// roundRect adds a closed rounded rectangle to the rasterizer path.
func roundRect(z *vector.Rasterizer, x, y, w, h, radius float32) {
	if radius == 0 {
		z.MoveTo(x, y)
		z.LineTo(x+w, y)
		z.LineTo(x+w, y+h)
		z.LineTo(x, y+h)
		z.ClosePath()
		return
	}
	z.MoveTo(x+radius, y)
	z.LineTo(x+w-radius, y)
	z.QuadTo(x+w, y, x+w, y+radius)
	z.LineTo(x+w, y+h-radius)
	z.QuadTo(x+w, y+h, x+w-radius, y+h)
	z.LineTo(x+radius, y+h)
	z.QuadTo(x, y+h, x, y+h-radius)
	z.LineTo(x, y+radius)
	z.QuadTo(x, y, x+radius, y)
	z.ClosePath()
}

// WritePNG writes the QR code to the given writer as a PNG.
// scale is the number of pixels per module, with a 4 module quiet zone.
func (qr *QRCode) WritePNG(w io.Writer, scale int) error {
	if scale < 1 {
		scale = 1
	}
	border := 4 * scale // Quiet zone
	dim := SurfaceSize(qr.Size, scale, border)

	img := image.NewRGBA(image.Rect(0, 0, dim, dim))
	qr.Draw(img, scale, border, Style{Foreground: color.Black, Background: color.White})
	return png.Encode(w, img)
}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func dataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
