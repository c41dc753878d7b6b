package qrcanvas

// Penalty weights
const (
	penaltyN1 = 3
	penaltyN2 = 3
	penaltyN3 = 40
	penaltyN4 = 10
)

// maskBit reports whether mask flips the module at row r, column c.
func maskBit(mask, r, c int) bool {
	switch mask {
	case 0:
		return (r+c)%2 == 0
	case 1:
		return r%2 == 0
	case 2:
		return c%3 == 0
	case 3:
		return (r+c)%3 == 0
	case 4:
		return (r/2+c/3)%2 == 0
	case 5:
		return r*c%2+r*c%3 == 0
	case 6:
		return (r*c%2+r*c%3)%2 == 0
	case 7:
		return ((r+c)%2+r*c%3)%2 == 0
	}
	return false
}

// penalty scores a finished symbol with the four standard rules. Lower is better.
func penalty(modules [][]bool) int {
	size := len(modules)
	get := func(r, c int, transpose bool) bool {
		if transpose {
			return modules[c][r]
		}
		return modules[r][c]
	}

	total := 0
	for _, transpose := range []bool{false, true} {
		for i := 0; i < size; i++ {
			total += runPenalty(size, func(j int) bool { return get(i, j, transpose) })
			total += finderPenalty(size, func(j int) bool { return get(i, j, transpose) })
		}
	}

	// 2x2 blocks
	for r := 0; r+1 < size; r++ {
		for c := 0; c+1 < size; c++ {
			v := modules[r][c]
			if v == modules[r][c+1] && v == modules[r+1][c] && v == modules[r+1][c+1] {
				total += penaltyN2
			}
		}
	}

	// Dark balance: N4 for every full 5% step away from 50%.
	dark := 0
	for _, row := range modules {
		for _, m := range row {
			if m {
				dark++
			}
		}
	}
	cells := size * size
	total += abs(dark*2-cells) * 10 / cells * penaltyN4
	return total
}

// runPenalty scores runs of five or more same-colored modules in one line.
func runPenalty(size int, at func(int) bool) int {
	p := 0
	run := 1
	for j := 1; j <= size; j++ {
		if j < size && at(j) == at(j-1) {
			run++
			continue
		}
		if run >= 5 {
			p += penaltyN1 + (run - 5)
		}
		run = 1
	}
	return p
}

// finderPenalty scores 1:1:3:1:1 dark patterns with four light modules on
// either side. Modules outside the symbol count as light.
func finderPenalty(size int, at func(int) bool) int {
	light := func(from, to int) bool {
		from, to = max(from, 0), min(to, size)
		for j := from; j < to; j++ {
			if at(j) {
				return false
			}
		}
		return true
	}

	p := 0
	for j := 0; j+7 <= size; j++ {
		if at(j) && !at(j+1) && at(j+2) && at(j+3) && at(j+4) && !at(j+5) && at(j+6) &&
			(light(j-4, j) || light(j+7, j+11)) {
			p += penaltyN3
		}
	}
	return p
}
