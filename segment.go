package qrcanvas

import "strings"

// Mode indicators
const (
	ModeNumeric      = 1
	ModeAlphanumeric = 2
	ModeByte         = 4
)

const alphanumericCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// BitBuffer accumulates bits most significant first.
type BitBuffer struct {
	Bits []bool
}

func NewBitBuffer() *BitBuffer {
	return &BitBuffer{Bits: []bool{}}
}

func (b *BitBuffer) Put(num, length int) {
	for i := 0; i < length; i++ {
		b.Bits = append(b.Bits, ((num>>(length-1-i))&1) == 1)
	}
}

func (b *BitBuffer) Len() int {
	return len(b.Bits)
}

// Bytes packs the buffer into bytes, zero filling the last partial byte.
func (b *BitBuffer) Bytes() []byte {
	out := make([]byte, (len(b.Bits)+7)/8)
	for i, bit := range b.Bits {
		if bit {
			out[i>>3] |= 1 << (7 - uint(i&7))
		}
	}
	return out
}

// segment is the payload in a single encoding mode.
type segment struct {
	mode  int
	chars int
	data  []byte
}

func newSegment(payload string) segment {
	data := []byte(payload)
	switch {
	case isNumeric(payload):
		return segment{mode: ModeNumeric, chars: len(data), data: data}
	case isAlphanumeric(payload):
		return segment{mode: ModeAlphanumeric, chars: len(data), data: data}
	}
	return segment{mode: ModeByte, chars: len(data), data: data}
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphanumericCharset, s[i]) < 0 {
			return false
		}
	}
	return len(s) > 0
}

// countBits is the width of the character count indicator.
func (s segment) countBits(version int) int {
	idx := 0
	switch {
	case version >= 27:
		idx = 2
	case version >= 10:
		idx = 1
	}
	switch s.mode {
	case ModeNumeric:
		return [3]int{10, 12, 14}[idx]
	case ModeAlphanumeric:
		return [3]int{9, 11, 13}[idx]
	}
	return [3]int{8, 16, 16}[idx]
}

// dataBits is the length of the encoded characters without header.
func (s segment) dataBits() int {
	switch s.mode {
	case ModeNumeric:
		return s.chars/3*10 + [3]int{0, 4, 7}[s.chars%3]
	case ModeAlphanumeric:
		return s.chars/2*11 + s.chars%2*6
	}
	return s.chars * 8
}

// totalBits returns the segment length at a version, or -1 when the count
// does not fit the indicator.
func (s segment) totalBits(version int) int {
	cb := s.countBits(version)
	if s.chars >= 1<<cb {
		return -1
	}
	return 4 + cb + s.dataBits()
}

func (s segment) write(bb *BitBuffer, version int) {
	bb.Put(s.mode, 4)
	bb.Put(s.chars, s.countBits(version))
	switch s.mode {
	case ModeNumeric:
		for i := 0; i < len(s.data); i += 3 {
			n := len(s.data) - i
			if n > 3 {
				n = 3
			}
			val := 0
			for _, c := range s.data[i : i+n] {
				val = val*10 + int(c-'0')
			}
			bb.Put(val, n*3+1)
		}
	case ModeAlphanumeric:
		for i := 0; i+1 < len(s.data); i += 2 {
			val := strings.IndexByte(alphanumericCharset, s.data[i])*45 +
				strings.IndexByte(alphanumericCharset, s.data[i+1])
			bb.Put(val, 11)
		}
		if len(s.data)%2 == 1 {
			bb.Put(strings.IndexByte(alphanumericCharset, s.data[len(s.data)-1]), 6)
		}
	default:
		for _, b := range s.data {
			bb.Put(int(b), 8)
		}
	}
}
