package landing

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ashokshau/qrcanvas"
)

// Options describe the single render performed when the server is created.
type Options struct {
	Payload  string
	Level    qrcanvas.Level
	CellSize int
	Margin   int
}

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Host *Host
	Log  *slog.Logger
}

// NewServer creates the host and triggers the page-load render exactly once.
// A failed render still mounts the fallback surface.
func NewServer(r *qrcanvas.Renderer, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{Host: &Host{}, Log: log}
	// The renderer already logs the failure.
	if _, err := r.RenderTo(s.Host, opts.Payload, opts.Level, opts.CellSize, opts.Margin); err != nil {
		log.Debug("serving fallback qr surface")
	}
	return s
}

// NewRouter returns a fully configured chi router with all routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Log))

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)

	r.Get("/qr.png", s.handleQRImage)
	r.Get("/qr/data", s.handleQRData)
	r.Get("/qr/open", s.handleQROpen)

	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	img := s.Host.Current()
	data := pageData{}
	if img != nil {
		b := img.Bounds()
		data.Width, data.Height = b.Dx(), b.Dy()
		data.Clickable = !img.Fallback
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.Log.Error("render page", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	img := s.Host.Current()
	if img == nil {
		writeError(w, http.StatusServiceUnavailable, "qr code not rendered")
		return
	}
	var buf bytes.Buffer
	if err := img.WritePNG(&buf); err != nil {
		s.Log.Error("encode qr png", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type qrDataResponse struct {
	Payload  string `json:"payload,omitempty"`
	Fallback bool   `json:"fallback"`
	Version  int    `json:"version,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	PNG      string `json:"png"`
}

func (s *Server) handleQRData(w http.ResponseWriter, r *http.Request) {
	img := s.Host.Current()
	if img == nil {
		writeError(w, http.StatusServiceUnavailable, "qr code not rendered")
		return
	}
	var buf bytes.Buffer
	if err := img.WritePNG(&buf); err != nil {
		s.Log.Error("encode qr png", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	b := img.Bounds()
	resp := qrDataResponse{
		Payload:  img.Target(),
		Fallback: img.Fallback,
		Width:    b.Dx(),
		Height:   b.Dy(),
		PNG:      base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	if img.QR != nil {
		resp.Version = img.QR.Version
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQROpen is the activation handler of the mounted surface.
func (s *Server) handleQROpen(w http.ResponseWriter, r *http.Request) {
	img := s.Host.Current()
	if img == nil || img.Fallback {
		writeError(w, http.StatusNotFound, "no download link available")
		return
	}
	if err := img.Activate(redirectNavigator{w: w}); err != nil {
		s.Log.Error("activate qr code", slog.Any("error", err))
		if errors.Is(err, ErrUnsafeTarget) {
			writeError(w, http.StatusUnprocessableEntity, "download link cannot be opened")
			return
		}
		writeError(w, http.StatusInternalServerError, "activation failed")
		return
	}
	s.Log.Info("qr code clicked, opening download link")
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// --- middleware --------------------------------------------------------------

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// --- page --------------------------------------------------------------------

type pageData struct {
	Width     int
	Height    int
	Clickable bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Download the App</title>
<style>
  body { font-family: Inter, -apple-system, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; }
  .qr-card { text-align: center; }
  #qr-canvas { image-rendering: pixelated; }
  a.qr-link { cursor: pointer; }
</style>
</head>
<body>
<div class="qr-card">
  <h1>Scan to download</h1>
  {{if .Clickable}}<a class="qr-link" href="/qr/open" target="_blank" rel="noopener">{{end}}
  <img id="qr-canvas" src="/qr.png" width="{{.Width}}" height="{{.Height}}" alt="QR Code">
  {{if .Clickable}}</a>{{end}}
</div>
</body>
</html>`))
