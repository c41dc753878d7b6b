// Package landing serves the host page that mounts the rendered QR surface
// and turns clicks on it into navigation to the payload.
package landing

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/ashokshau/qrcanvas"
)

// Host is the mount point for one QR surface. Attach replaces the current
// surface; readers always see a complete image.
type Host struct {
	mu  sync.RWMutex
	img *qrcanvas.Image
}

// Attach implements qrcanvas.Mount.
func (h *Host) Attach(img *qrcanvas.Image) {
	h.mu.Lock()
	h.img = img
	h.mu.Unlock()
}

// Current returns the mounted surface, or nil before the first render.
func (h *Host) Current() *qrcanvas.Image {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.img
}

// redirectNavigator opens targets by redirecting the current request. The page
// links to the activation route with target="_blank", so the redirect lands in
// a new browsing context.
type redirectNavigator struct {
	w http.ResponseWriter
}

// ErrUnsafeTarget is returned for targets that cannot travel in a Location
// header unchanged. net/http rewrites CR and LF in header values.
var ErrUnsafeTarget = errors.New("target contains line breaks")

func (n redirectNavigator) Open(target string) error {
	if strings.ContainsAny(target, "\r\n") {
		return ErrUnsafeTarget
	}
	// Set the header directly; http.Redirect would clean and re-escape the target.
	n.w.Header().Set("Location", target)
	n.w.WriteHeader(http.StatusFound)
	return nil
}
