package qrcanvas_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"strings"
	"testing"

	"github.com/ashokshau/qrcanvas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logRecord struct {
	Level   string `json:"level"`
	Msg     string `json:"msg"`
	Error   string `json:"error"`
	ECLevel string `json:"ec_level"`
}

func newCapturingLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func records(t *testing.T, buf *bytes.Buffer, level string) []logRecord {
	t.Helper()
	var out []logRecord
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec logRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

type recordingNavigator struct {
	opened []string
}

func (n *recordingNavigator) Open(target string) error {
	n.opened = append(n.opened, target)
	return nil
}

type recordingMount struct {
	attached []*qrcanvas.Image
}

func (m *recordingMount) Attach(img *qrcanvas.Image) {
	m.attached = append(m.attached, img)
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("short url at level M", func(t *testing.T) {
		t.Parallel()
		log, buf := newCapturingLogger()
		r := qrcanvas.NewRenderer(qrcanvas.WithLogger(log))

		img, err := r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
		require.NoError(t, err)
		require.NotNil(t, img)
		require.NotNil(t, img.QR)
		assert.False(t, img.Fallback)

		// 19 bytes exceed the 14 byte capacity of 1-M, so this is a 25 module symbol.
		assert.Equal(t, 2, img.QR.Version)
		assert.Equal(t, 25, img.QR.ModuleCount())
		assert.Equal(t, 25*5+20, img.Bounds().Dx())
		assert.Equal(t, 25*5+20, img.Bounds().Dy())

		assert.Len(t, records(t, buf, "INFO"), 1)
		assert.Empty(t, records(t, buf, "ERROR"))
	})

	t.Run("surface side follows geometry", func(t *testing.T) {
		t.Parallel()
		r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
		for _, g := range []struct{ cell, margin int }{{1, 0}, {3, 7}, {8, 32}} {
			img, err := r.Render("payload", qrcanvas.LevelQ, g.cell, g.margin)
			require.NoError(t, err)
			want := qrcanvas.SurfaceSize(img.QR.Size, g.cell, g.margin)
			assert.Equal(t, img.QR.Size*g.cell+2*g.margin, want)
			assert.Equal(t, image.Rect(0, 0, want, want), img.Bounds())
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
		a, err := r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
		require.NoError(t, err)
		b, err := r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
		require.NoError(t, err)
		assert.Equal(t, a.QR.Modules, b.QR.Modules)
		assert.Equal(t, a.Image.(*image.RGBA).Pix, b.Image.(*image.RGBA).Pix)
	})
}

func TestRenderModulesToPixels(t *testing.T) {
	t.Parallel()

	const cell, margin = 5, 10
	r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
	img, err := r.Render("https://example.com", qrcanvas.LevelM, cell, margin)
	require.NoError(t, err)

	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	qr := img.QR
	for row := 0; row < qr.Size; row++ {
		for col := 0; col < qr.Size; col++ {
			x0, y0 := col*cell+margin, row*cell+margin
			if qr.IsDark(row, col) {
				center := rgba(img.At(x0+cell/2, y0+cell/2))
				assert.Less(t, center.R, uint8(0x40), "dark module %d,%d", row, col)
				continue
			}
			for y := y0; y < y0+cell; y++ {
				for x := x0; x < x0+cell; x++ {
					require.Equal(t, white, rgba(img.At(x, y)), "light module %d,%d at pixel %d,%d", row, col, x, y)
				}
			}
		}
	}

	// Margin stays background.
	side := img.Bounds().Dx()
	for i := 0; i < side; i++ {
		for j := 0; j < margin; j++ {
			require.Equal(t, white, rgba(img.At(i, j)))
			require.Equal(t, white, rgba(img.At(j, i)))
			require.Equal(t, white, rgba(img.At(i, side-1-j)))
			require.Equal(t, white, rgba(img.At(side-1-j, i)))
		}
	}
}

func TestRenderSquareModules(t *testing.T) {
	t.Parallel()

	r := qrcanvas.NewRenderer(
		qrcanvas.WithLogger(slog.New(slog.DiscardHandler)),
		qrcanvas.WithStyle(qrcanvas.Style{
			Foreground: color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF},
			Background: color.RGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF},
		}),
	)
	img, err := r.Render("https://example.com", qrcanvas.LevelL, 4, 8)
	require.NoError(t, err)

	// Top-left finder corner module is dark; with no radius every pixel is foreground.
	fg := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			assert.Equal(t, fg, rgba(img.At(x, y)))
		}
	}
	assert.Equal(t, color.RGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF}, rgba(img.At(0, 0)))
}

func TestRenderFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		level   qrcanvas.Level
		cell    int
		margin  int
		opts    []qrcanvas.Option
		cause   error
	}{
		{"payload over level H capacity", strings.Repeat("x", 1274), qrcanvas.LevelH, 5, 10, nil, qrcanvas.ErrPayloadTooLong},
		{"empty payload", "", qrcanvas.LevelM, 5, 10, nil, qrcanvas.ErrEmptyPayload},
		{"invalid level", "abc", qrcanvas.Level(9), 5, 10, nil, qrcanvas.ErrInvalidLevel},
		{"zero cell size", "abc", qrcanvas.LevelM, 0, 10, nil, qrcanvas.ErrInvalidGeometry},
		{"negative margin", "abc", qrcanvas.LevelM, 5, -1, nil, qrcanvas.ErrInvalidGeometry},
		{
			"no drawing surface", "abc", qrcanvas.LevelM, 5, 10,
			[]qrcanvas.Option{qrcanvas.WithSurfaceAllocator(func(image.Rectangle) (draw.Image, error) {
				return nil, errors.New("2d context not supported")
			})},
			qrcanvas.ErrSurfaceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log, buf := newCapturingLogger()
			r := qrcanvas.NewRenderer(append([]qrcanvas.Option{qrcanvas.WithLogger(log)}, tt.opts...)...)

			var img *qrcanvas.Image
			var err error
			require.NotPanics(t, func() {
				img, err = r.Render(tt.payload, tt.level, tt.cell, tt.margin)
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, qrcanvas.ErrEncodingUnavailable)
			assert.ErrorIs(t, err, tt.cause)
			assertFallback(t, img)

			errs := records(t, buf, "ERROR")
			require.Len(t, errs, 1, "exactly one failure is logged")
			assert.NotEmpty(t, errs[0].Error)
			assert.Equal(t, tt.level.String(), errs[0].ECLevel)
			assert.Empty(t, records(t, buf, "INFO"))
		})
	}
}

func TestRenderRecoversFromEncoderPanic(t *testing.T) {
	t.Parallel()

	log, buf := newCapturingLogger()
	r := qrcanvas.NewRenderer(
		qrcanvas.WithLogger(log),
		qrcanvas.WithEncoder(qrcanvas.EncoderFunc(func(string, qrcanvas.Level) (*qrcanvas.QRCode, error) {
			panic("boom")
		})),
	)

	var img *qrcanvas.Image
	var err error
	require.NotPanics(t, func() {
		img, err = r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
	})
	assert.ErrorIs(t, err, qrcanvas.ErrEncodingUnavailable)
	assertFallback(t, img)
	assert.Len(t, records(t, buf, "ERROR"), 1)
}

func assertFallback(t *testing.T, img *qrcanvas.Image) {
	t.Helper()
	require.NotNil(t, img)
	assert.True(t, img.Fallback)
	assert.Nil(t, img.QR)
	assert.Empty(t, img.Target())
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	bg := color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
	text := color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	assert.Equal(t, bg, rgba(img.At(0, 0)))
	assert.Equal(t, bg, rgba(img.At(199, 199)))

	// Three lines of text around the baselines 90, 110 and 130.
	for _, baseline := range []int{90, 110, 130} {
		inked := 0
		for y := baseline - 11; y <= baseline+2; y++ {
			for x := 0; x < 200; x++ {
				if rgba(img.At(x, y)) == text {
					inked++
				}
			}
		}
		assert.Positive(t, inked, "line at baseline %d", baseline)
	}
	// Nothing drawn far from the text block.
	for x := 0; x < 200; x++ {
		assert.Equal(t, bg, rgba(img.At(x, 40)))
		assert.Equal(t, bg, rgba(img.At(x, 160)))
	}

	nav := &recordingNavigator{}
	assert.ErrorIs(t, img.Activate(nav), qrcanvas.ErrNotActivatable)
	assert.Empty(t, nav.opened)
}

func TestActivateOpensPayload(t *testing.T) {
	t.Parallel()

	payload := "https://drive.google.com/file/d/1cBVFafLyS735CTYlzzIkpEPgd5WjZTB1/view?usp=sharing&x=%20ü"
	r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
	img, err := r.Render(payload, qrcanvas.LevelM, 5, 10)
	require.NoError(t, err)

	nav := &recordingNavigator{}
	require.NoError(t, img.Activate(nav))
	require.Equal(t, []string{payload}, nav.opened)
	assert.Equal(t, payload, img.Target())

	navErr := errors.New("popup blocked")
	err = img.Activate(qrcanvas.NavigatorFunc(func(string) error { return navErr }))
	assert.ErrorIs(t, err, navErr)
}

func TestRenderTo(t *testing.T) {
	t.Parallel()

	r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
	mount := &recordingMount{}

	first, err := r.RenderTo(mount, "https://example.com", qrcanvas.LevelM, 5, 10)
	require.NoError(t, err)
	second, err := r.RenderTo(mount, strings.Repeat("x", 5000), qrcanvas.LevelH, 5, 10)
	require.Error(t, err)

	require.Len(t, mount.attached, 2)
	assert.Same(t, first, mount.attached[0])
	assert.Same(t, second, mount.attached[1])
	assert.True(t, mount.attached[1].Fallback)
}

func TestImageEncoding(t *testing.T) {
	t.Parallel()

	r := qrcanvas.NewRenderer(qrcanvas.WithLogger(slog.New(slog.DiscardHandler)))
	img, err := r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WritePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	raw, err := img.PNG()
	require.NoError(t, err)
	fromBytes, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), fromBytes.Bounds())

	uri, err := img.DataURI()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(raw), uri)
}

func TestFailureLogKeepsSeverity(t *testing.T) {
	t.Parallel()

	log, buf := newCapturingLogger()
	r := qrcanvas.NewRenderer(qrcanvas.WithLogger(log))
	_, err := r.Render("", qrcanvas.LevelQ, 5, 10)
	require.Error(t, err)

	line := strings.TrimSpace(buf.String())
	require.NotContains(t, line, "\n", "a single record")
	assert.Equal(t, 1, strings.Count(line, `"level":`), "only the record severity uses the level key")
	assert.Contains(t, line, `"level":"ERROR"`)
	assert.Contains(t, line, `"ec_level":"Q"`)
}

func TestSkip2Encoder(t *testing.T) {
	t.Parallel()

	r := qrcanvas.NewRenderer(
		qrcanvas.WithLogger(slog.New(slog.DiscardHandler)),
		qrcanvas.WithEncoder(qrcanvas.Skip2Encoder{}),
	)
	img, err := r.Render("https://example.com", qrcanvas.LevelM, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, img.QR.Size*5+20, img.Bounds().Dx())
	assert.Equal(t, 1, img.QR.Size%2)
	assert.GreaterOrEqual(t, img.QR.Size, 21)

	native, err := qrcanvas.NewQRCode("https://example.com", qrcanvas.LevelM)
	require.NoError(t, err)
	assert.Equal(t, native.Size, img.QR.Size, "both backends pick the same version")

	_, err = qrcanvas.Skip2Encoder{}.Encode("", qrcanvas.LevelM)
	assert.ErrorIs(t, err, qrcanvas.ErrEmptyPayload)
}

func TestEncoderByName(t *testing.T) {
	t.Parallel()

	enc, err := qrcanvas.EncoderByName("native")
	require.NoError(t, err)
	assert.IsType(t, qrcanvas.NativeEncoder{}, enc)

	enc, err = qrcanvas.EncoderByName("SKIP2")
	require.NoError(t, err)
	assert.IsType(t, qrcanvas.Skip2Encoder{}, enc)

	_, err = qrcanvas.EncoderByName("zxing")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]qrcanvas.Level{
		"L": qrcanvas.LevelL, "m": qrcanvas.LevelM, "quartile": qrcanvas.LevelQ, " High ": qrcanvas.LevelH,
	} {
		got, err := qrcanvas.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := qrcanvas.ParseLevel("X")
	assert.ErrorIs(t, err, qrcanvas.ErrInvalidLevel)

	var l qrcanvas.Level
	require.NoError(t, l.UnmarshalText([]byte("H")))
	assert.Equal(t, qrcanvas.LevelH, l)
	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "H", string(text))
}
