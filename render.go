// Package qrcanvas encodes text as QR codes and rasterizes them onto image
// surfaces for a host page. Failed renders degrade to a fixed placeholder
// surface instead of surfacing a fault to the host.
package qrcanvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"time"
)

// Mount is the host-provided container that receives rendered surfaces.
// Attaching a new image replaces whatever was attached before.
type Mount interface {
	Attach(img *Image)
}

// Navigator opens a link in a new browsing context.
type Navigator interface {
	Open(target string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(target string) error

func (f NavigatorFunc) Open(target string) error {
	return f(target)
}

// SurfaceAllocator creates the drawing surface for a render.
type SurfaceAllocator func(r image.Rectangle) (draw.Image, error)

func newRGBASurface(r image.Rectangle) (draw.Image, error) {
	return image.NewRGBA(r), nil
}

// Image is a rendered surface. A successful render carries the payload as its
// activation target; the fallback surface carries none.
type Image struct {
	draw.Image

	// QR is nil for the fallback surface.
	QR       *QRCode
	Fallback bool

	target   string
	activate func(nav Navigator) error
}

// Target returns the payload opened on activation, or "" for the fallback.
func (img *Image) Target() string {
	return img.target
}

// Activate runs the image's activation handler; it opens the payload via nav.
func (img *Image) Activate(nav Navigator) error {
	if img.activate == nil {
		return ErrNotActivatable
	}
	return img.activate(nav)
}

// WritePNG encodes the surface as PNG.
func (img *Image) WritePNG(w io.Writer) error {
	return encodePNG(w, img.Image)
}

// PNG returns the surface encoded as PNG bytes.
func (img *Image) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodePNG(&buf, img.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI returns the surface as a base64 PNG data URI for <img src>.
func (img *Image) DataURI() (string, error) {
	return dataURI(img.Image)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithEncoder replaces the native encoder.
func WithEncoder(enc Encoder) Option {
	return func(r *Renderer) {
		if enc != nil {
			r.enc = enc
		}
	}
}

// WithStyle sets colors and corner radius.
func WithStyle(s Style) Option {
	return func(r *Renderer) {
		if s.Foreground != nil {
			r.style.Foreground = s.Foreground
		}
		if s.Background != nil {
			r.style.Background = s.Background
		}
		r.style.CornerRadius = s.CornerRadius
	}
}

// WithSurfaceAllocator sets how drawing surfaces are created.
func WithSurfaceAllocator(alloc SurfaceAllocator) Option {
	return func(r *Renderer) {
		if alloc != nil {
			r.alloc = alloc
		}
	}
}

// Renderer encodes payloads and rasterizes them. It holds no mutable state.
type Renderer struct {
	log   *slog.Logger
	enc   Encoder
	style Style
	alloc SurfaceAllocator
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		log:   slog.Default(),
		enc:   NativeEncoder{},
		style: DefaultStyle,
		alloc: newRGBASurface,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render encodes payload and draws it. The returned image is never nil: on
// failure it is the fallback surface and the error wraps ErrEncodingUnavailable.
func (r *Renderer) Render(payload string, level Level, cellSize, margin int) (img *Image, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrEncodingUnavailable, p)
			img = fallbackImage()
		}
		if err != nil {
			r.log.Error("failed to generate qr code", logError(err), slog.String("ec_level", level.String()))
			return
		}
		r.log.Info("qr code generated",
			slog.String("payload", payload),
			slog.Int("version", img.QR.Version),
			slog.Int("modules", img.QR.Size),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()

	img, err = r.render(payload, level, cellSize, margin)
	if err != nil {
		return fallbackImage(), errors.Join(ErrEncodingUnavailable, err)
	}
	return img, nil
}

func (r *Renderer) render(payload string, level Level, cellSize, margin int) (*Image, error) {
	if cellSize <= 0 || margin < 0 {
		return nil, fmt.Errorf("%w: cell size %d, margin %d", ErrInvalidGeometry, cellSize, margin)
	}
	qr, err := r.enc.Encode(payload, level)
	if err != nil {
		return nil, err
	}

	size := SurfaceSize(qr.Size, cellSize, margin)
	surface, err := r.alloc(image.Rect(0, 0, size, size))
	if err != nil {
		return nil, errors.Join(ErrSurfaceUnavailable, err)
	}
	if surface == nil {
		return nil, ErrSurfaceUnavailable
	}
	qr.Draw(surface, cellSize, margin, r.style)

	return &Image{
		Image:  surface,
		QR:     qr,
		target: payload,
		activate: func(nav Navigator) error {
			return nav.Open(payload)
		},
	}, nil
}

// RenderTo renders and attaches the result to mount. The error is informational;
// the mount always receives a surface.
func (r *Renderer) RenderTo(mount Mount, payload string, level Level, cellSize, margin int) (*Image, error) {
	img, err := r.Render(payload, level, cellSize, margin)
	mount.Attach(img)
	return img, err
}

func fallbackImage() *Image {
	return &Image{Image: drawFallback(), Fallback: true}
}

// logError returns an empty attr for nil, so it can be passed unconditionally.
func logError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}
