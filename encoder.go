package qrcanvas

import (
	"fmt"
)

// QRCode is an immutable module matrix. Modules[row][col] is true for dark modules.
type QRCode struct {
	Version int
	Level   Level
	Mask    int
	Size    int // Dimension (21 + 4*(V-1))
	Modules [][]bool
}

// IsDark reports whether the module at row, col is dark. Out of range is light.
func (qr *QRCode) IsDark(row, col int) bool {
	if row < 0 || col < 0 || row >= qr.Size || col >= qr.Size {
		return false
	}
	return qr.Modules[row][col]
}

// ModuleCount is the side length of the matrix in modules.
func (qr *QRCode) ModuleCount() int {
	return qr.Size
}

// NewQRCode encodes content at the given level, choosing the smallest version
// and the mask with the lowest penalty.
func NewQRCode(content string, level Level) (*QRCode, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}
	if content == "" {
		return nil, ErrEmptyPayload
	}

	seg := newSegment(content)
	version, info, err := selectVersion(seg, level)
	if err != nil {
		return nil, err
	}

	data := encodeData(seg, version, info)
	codewords := interleave(data, info)

	m := newMatrix(version)
	m.drawFunctionPatterns()
	m.drawCodewords(codewords)

	best, bestPenalty := 0, -1
	for mask := 0; mask < 8; mask++ {
		m.applyMask(mask)
		m.drawFormatBits(level, mask)
		if p := penalty(m.modules); bestPenalty < 0 || p < bestPenalty {
			best, bestPenalty = mask, p
		}
		m.applyMask(mask) // XOR again to undo
	}
	m.applyMask(best)
	m.drawFormatBits(level, best)

	return &QRCode{
		Version: version,
		Level:   level,
		Mask:    best,
		Size:    m.size,
		Modules: m.modules,
	}, nil
}

func selectVersion(seg segment, level Level) (int, VersionInfo, error) {
	for ver := minVersion; ver <= maxVersion; ver++ {
		info := versionInfo(ver, level)
		bits := seg.totalBits(ver)
		if bits >= 0 && bits <= info.DataCodewords()*8 {
			return ver, info, nil
		}
	}
	return 0, VersionInfo{}, fmt.Errorf("%w: %d bytes at level %s", ErrPayloadTooLong, len(seg.data), level)
}

// encodeData builds the data codewords: header, payload, terminator and padding.
func encodeData(seg segment, version int, info VersionInfo) []byte {
	bitBuffer := NewBitBuffer()
	seg.write(bitBuffer, version)

	dataCapacityBits := info.DataCodewords() * 8

	// Terminator (up to 4 zeros)
	term := 4
	if bitBuffer.Len()+term > dataCapacityBits {
		term = dataCapacityBits - bitBuffer.Len()
	}
	bitBuffer.Put(0, term)

	// Byte alignment
	if bitBuffer.Len()%8 != 0 {
		bitBuffer.Put(0, 8-(bitBuffer.Len()%8))
	}

	// Pad bytes
	padBytes := []int{0xEC, 0x11}
	for i := 0; bitBuffer.Len() < dataCapacityBits; i++ {
		bitBuffer.Put(padBytes[i%2], 8)
	}
	return bitBuffer.Bytes()
}

// matrix is the mutable working state while a symbol is built.
type matrix struct {
	version    int
	size       int
	modules    [][]bool
	isFunction [][]bool
}

func newMatrix(version int) *matrix {
	size := symbolSize(version)
	m := &matrix{
		version:    version,
		size:       size,
		modules:    make([][]bool, size),
		isFunction: make([][]bool, size),
	}
	for i := 0; i < size; i++ {
		m.modules[i] = make([]bool, size)
		m.isFunction[i] = make([]bool, size)
	}
	return m
}

func (m *matrix) setFunction(r, c int, dark bool) {
	m.modules[r][c] = dark
	m.isFunction[r][c] = true
}

func (m *matrix) drawFunctionPatterns() {
	// Timing Patterns
	for i := 0; i < m.size; i++ {
		m.setFunction(6, i, i%2 == 0)
		m.setFunction(i, 6, i%2 == 0)
	}

	// Finder Patterns with their separators
	m.drawFinder(3, 3)
	m.drawFinder(3, m.size-4)
	m.drawFinder(m.size-4, 3)

	// Alignment Patterns
	pos := alignmentPositions(m.version)
	last := len(pos) - 1
	for i, r := range pos {
		for j, c := range pos {
			// Skip the three corners occupied by finders.
			if (i == 0 && j == 0) || (i == 0 && j == last) || (i == last && j == 0) {
				continue
			}
			m.drawAlignment(r, c)
		}
	}

	// Reserve format areas; real bits are written after masking.
	m.drawFormatBits(LevelM, 0)
	m.drawVersionBits()
}

// drawFinder draws a 7x7 finder centered at r, c plus the one-module separator.
func (m *matrix) drawFinder(r, c int) {
	for dy := -4; dy <= 4; dy++ {
		for dx := -4; dx <= 4; dx++ {
			y, x := r+dy, c+dx
			if y < 0 || y >= m.size || x < 0 || x >= m.size {
				continue
			}
			d := max(abs(dx), abs(dy))
			m.setFunction(y, x, d != 2 && d != 4)
		}
	}
}

func (m *matrix) drawAlignment(r, c int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			m.setFunction(r+dy, c+dx, max(abs(dx), abs(dy)) != 1)
		}
	}
}

// drawFormatBits writes both copies of the 15-bit format information and the dark module.
func (m *matrix) drawFormatBits(level Level, mask int) {
	bits := formatBits(level, mask)
	bit := func(i int) bool { return (bits>>i)&1 == 1 }

	// Around Top-Left Finder
	for i := 0; i <= 5; i++ {
		m.setFunction(i, 8, bit(i))
	}
	m.setFunction(7, 8, bit(6)) // Skip timing (6,8)
	m.setFunction(8, 8, bit(7))
	m.setFunction(8, 7, bit(8)) // Skip timing (8,6)
	for i := 9; i < 15; i++ {
		m.setFunction(8, 14-i, bit(i))
	}

	// Below Top-Right Finder and right of Bottom-Left Finder
	for i := 0; i < 8; i++ {
		m.setFunction(8, m.size-1-i, bit(i))
	}
	for i := 8; i < 15; i++ {
		m.setFunction(m.size-15+i, 8, bit(i))
	}

	// Dark Module
	m.setFunction(m.size-8, 8, true)
}

// drawVersionBits writes the two 6x3 version blocks for version 7 and up.
func (m *matrix) drawVersionBits() {
	if m.version < 7 {
		return
	}
	bits := versionBits(m.version)
	for i := 0; i < 18; i++ {
		dark := (bits>>i)&1 == 1
		a, b := m.size-11+i%3, i/3
		m.setFunction(b, a, dark)
		m.setFunction(a, b, dark)
	}
}

// drawCodewords places the codeword bits in the zig-zag order, two columns
// at a time from the right, skipping the vertical timing column.
func (m *matrix) drawCodewords(codewords []byte) {
	idx := 0
	totalBits := len(codewords) * 8
	for right := m.size - 1; right >= 1; right -= 2 {
		if right == 6 {
			right = 5
		}
		upward := ((right + 1) & 2) == 0
		for vert := 0; vert < m.size; vert++ {
			r := vert
			if upward {
				r = m.size - 1 - vert
			}
			for j := 0; j < 2; j++ {
				c := right - j
				if m.isFunction[r][c] || idx >= totalBits {
					continue
				}
				m.modules[r][c] = (codewords[idx>>3]>>(7-uint(idx&7)))&1 == 1
				idx++
			}
		}
	}
}

func (m *matrix) applyMask(mask int) {
	for r := 0; r < m.size; r++ {
		for c := 0; c < m.size; c++ {
			if !m.isFunction[r][c] && maskBit(mask, r, c) {
				m.modules[r][c] = !m.modules[r][c]
			}
		}
	}
}

// formatBits returns the BCH(15,5) protected format word, already XOR masked.
func formatBits(level Level, mask int) int {
	data := int(level)<<3 | mask
	rem := data
	for i := 0; i < 10; i++ {
		// Generator 10100110111 (0x537)
		rem = (rem << 1) ^ ((rem >> 9) * 0x537)
	}
	// Mask string 101010000010010 (0x5412)
	return (data<<10 | rem) ^ 0x5412
}

// versionBits returns the BCH(18,6) protected version word.
func versionBits(version int) int {
	rem := version
	for i := 0; i < 12; i++ {
		rem = (rem << 1) ^ ((rem >> 11) * 0x1F25)
	}
	return version<<12 | rem
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
