package qrcanvas

// Galois Field (256) logic for QR Code Reed-Solomon error correction.
// Primitive Polynomial: x^8 + x^4 + x^3 + x^2 + 1 (0x11D or 285)

var (
	expTable [256]byte
	logTable [256]int
)

func init() {
	val := 1
	for i := 0; i < 255; i++ {
		expTable[i] = byte(val)
		logTable[val] = i
		val <<= 1
		if val >= 256 {
			val ^= 0x11D
		}
	}
	expTable[255] = expTable[0]
}

func gfMul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return expTable[(logTable[x]+logTable[y])%255]
}

// generatorPoly returns the coefficients of (x - a^0)(x - a^1)...(x - a^(n-1)),
// highest degree first with the leading 1 dropped.
func generatorPoly(degree int) []byte {
	gen := make([]byte, degree)
	gen[degree-1] = 1
	root := byte(1)
	for i := 0; i < degree; i++ {
		for j := 0; j < degree; j++ {
			gen[j] = gfMul(gen[j], root)
			if j+1 < degree {
				gen[j] ^= gen[j+1]
			}
		}
		root = gfMul(root, 2)
	}
	return gen
}

// ecCodewords returns the remainder of data(x) * x^len(gen) divided by the generator.
func ecCodewords(data, gen []byte) []byte {
	rem := make([]byte, len(gen))
	for _, b := range data {
		factor := b ^ rem[0]
		copy(rem, rem[1:])
		rem[len(rem)-1] = 0
		for i, g := range gen {
			rem[i] ^= gfMul(g, factor)
		}
	}
	return rem
}

// interleave splits data into the version's blocks, computes EC per block and
// returns the final codeword sequence.
func interleave(data []byte, info VersionInfo) []byte {
	numBlocks := info.Blocks
	shortBlocks := numBlocks - info.TotalCodewords%numBlocks
	shortLen := info.TotalCodewords / numBlocks
	gen := generatorPoly(info.ECCodewords)

	blocks := make([][]byte, 0, numBlocks)
	for i, k := 0, 0; i < numBlocks; i++ {
		n := shortLen - info.ECCodewords
		if i >= shortBlocks {
			n++
		}
		block := make([]byte, 0, shortLen+1)
		block = append(block, data[k:k+n]...)
		k += n
		ec := ecCodewords(block, gen)
		if i < shortBlocks {
			// Pad short blocks so that column indices line up with long ones.
			block = append(block, 0)
		}
		blocks = append(blocks, append(block, ec...))
	}

	out := make([]byte, 0, info.TotalCodewords)
	for i := 0; i < len(blocks[0]); i++ {
		for j, block := range blocks {
			if i == shortLen-info.ECCodewords && j < shortBlocks {
				continue
			}
			out = append(out, block[i])
		}
	}
	return out
}
