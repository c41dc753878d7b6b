package qrcanvas

import "errors"

var (
	// ErrEncodingUnavailable wraps every failure that ends in the fallback surface.
	ErrEncodingUnavailable = errors.New("qr code unavailable")

	// ErrEmptyPayload is returned when the payload is empty.
	ErrEmptyPayload = errors.New("payload cannot be empty")
	// ErrPayloadTooLong is returned when no version can hold the payload at the requested level.
	ErrPayloadTooLong = errors.New("payload exceeds qr code capacity")
	// ErrInvalidLevel is returned for an unknown error correction level.
	ErrInvalidLevel = errors.New("invalid error correction level")
	// ErrInvalidGeometry is returned for a non-positive cell size or a negative margin.
	ErrInvalidGeometry = errors.New("invalid cell size or margin")
	// ErrSurfaceUnavailable is returned when no drawing surface could be allocated.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
	// ErrNotActivatable is returned when activating an image without a link, such as the fallback.
	ErrNotActivatable = errors.New("image has no activation target")
)
