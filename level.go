package qrcanvas

import (
	"fmt"
	"strings"
)

// Level is an error correction level. The values are the two format bits.
type Level int

// ECC Levels
const (
	LevelL Level = 1 // 7%
	LevelM Level = 0 // 15%
	LevelQ Level = 3 // 25%
	LevelH Level = 2 // 30%
)

// ordinal maps a level onto the row of the block tables (L, M, Q, H).
func (l Level) ordinal() int {
	switch l {
	case LevelL:
		return 0
	case LevelM:
		return 1
	case LevelQ:
		return 2
	case LevelH:
		return 3
	}
	return -1
}

// Valid reports whether l is one of the four standard levels.
func (l Level) Valid() bool {
	return l.ordinal() >= 0
}

func (l Level) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts "L", "M", "Q", "H" or "low", "medium", "quartile", "high".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "low":
		return LevelL, nil
	case "m", "medium":
		return LevelM, nil
	case "q", "quartile":
		return LevelQ, nil
	case "h", "high":
		return LevelH, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// UnmarshalText lets levels be decoded from config files and environment variables.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}
