package qrcanvas

import (
	"errors"
	"fmt"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// Encoder turns a payload into a module matrix.
type Encoder interface {
	Encode(payload string, level Level) (*QRCode, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(payload string, level Level) (*QRCode, error)

func (f EncoderFunc) Encode(payload string, level Level) (*QRCode, error) {
	return f(payload, level)
}

// NativeEncoder is the in-package encoder.
type NativeEncoder struct{}

func (NativeEncoder) Encode(payload string, level Level) (*QRCode, error) {
	return NewQRCode(payload, level)
}

// Skip2Encoder delegates matrix construction to github.com/skip2/go-qrcode.
// The library does not report the chosen mask, so Mask is -1.
type Skip2Encoder struct{}

func (Skip2Encoder) Encode(payload string, level Level) (*QRCode, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	var rl skipqrcode.RecoveryLevel
	switch level {
	case LevelL:
		rl = skipqrcode.Low
	case LevelM:
		rl = skipqrcode.Medium
	case LevelQ:
		rl = skipqrcode.High
	case LevelH:
		rl = skipqrcode.Highest
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}

	q, err := skipqrcode.New(payload, rl)
	if err != nil {
		if strings.Contains(err.Error(), "too long") {
			return nil, errors.Join(ErrPayloadTooLong, err)
		}
		return nil, err
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	return &QRCode{
		Version: q.VersionNumber,
		Level:   level,
		Mask:    -1,
		Size:    len(bitmap),
		Modules: bitmap,
	}, nil
}

// EncoderByName resolves the config names "native" and "skip2".
func EncoderByName(name string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "native":
		return NativeEncoder{}, nil
	case "skip2":
		return Skip2Encoder{}, nil
	}
	return nil, fmt.Errorf("unknown encoder %q", name)
}
