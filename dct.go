package main

import (
	"fmt"
	"math"
)

// dctBasis holds the cosine and normalization tables for an n×n orthonormal
// DCT-II. Embed and extract share one basis, so both sides see bit-identical
// coefficients for the same stored samples.
type dctBasis struct {
	n     int
	cos   [][]float64 // cos[u][x] = cos((2x+1)·u·π / 2n)
	alpha []float64   // alpha[0] = sqrt(1/n), alpha[u>0] = sqrt(2/n)
}

func newDCTBasis(n int) *dctBasis {
	b := &dctBasis{n: n, cos: make([][]float64, n), alpha: make([]float64, n)}
	for u := 0; u < n; u++ {
		b.cos[u] = make([]float64, n)
		for x := 0; x < n; x++ {
			b.cos[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / float64(2*n))
		}
		b.alpha[u] = math.Sqrt(2 / float64(n))
	}
	b.alpha[0] = math.Sqrt(1 / float64(n))
	return b
}

// weight is the contribution of spatial sample (y,x) to coefficient (r,c):
// one sample unit moves the coefficient by exactly this much.
func (b *dctBasis) weight(r, c, y, x int) float64 {
	return b.alpha[r] * b.alpha[c] * b.cos[r][y] * b.cos[c][x]
}

// dctScratch reuses per-call buffers across the blocks of one embed or
// extract pass. Calls never share scratch, so concurrent invocations on
// distinct images stay independent.
type dctScratch struct {
	basis *dctBasis
	block []float64 // spatial samples, row-major n×n
	freq  []float64 // coefficients, row-major n×n
	tmp   []float64 // separable pass intermediate
}

func newDCTScratch(n int) *dctScratch {
	return &dctScratch{
		basis: newDCTBasis(n),
		block: make([]float64, n*n),
		freq:  make([]float64, n*n),
		tmp:   make([]float64, n*n),
	}
}

// loadBlock gathers block (bx,by) of the plane into float samples.
func (s *dctScratch) loadBlock(plane []uint8, w, bx, by int) {
	n := s.basis.n
	base := by*n*w + bx*n
	for y := 0; y < n; y++ {
		off := base + y*w
		for x := 0; x < n; x++ {
			s.block[y*n+x] = float64(plane[off+x])
		}
	}
}

// storeBlock scatters the float samples back, each rounded and clipped to
// the 8-bit range.
func (s *dctScratch) storeBlock(plane []uint8, w, bx, by int) {
	n := s.basis.n
	base := by*n*w + bx*n
	for y := 0; y < n; y++ {
		off := base + y*w
		for x := 0; x < n; x++ {
			v := int(math.Round(s.block[y*n+x]))
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			plane[off+x] = uint8(v)
		}
	}
}

// forward computes freq from block (2D DCT-II, separable rows then columns).
func (s *dctScratch) forward() {
	n := s.basis.n
	cos, alpha := s.basis.cos, s.basis.alpha
	for y := 0; y < n; y++ {
		for u := 0; u < n; u++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += s.block[y*n+x] * cos[u][x]
			}
			s.tmp[y*n+u] = alpha[u] * sum
		}
	}
	for v := 0; v < n; v++ {
		for u := 0; u < n; u++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += s.tmp[y*n+u] * cos[v][y]
			}
			s.freq[v*n+u] = alpha[v] * sum
		}
	}
}

// inverse computes block from freq.
func (s *dctScratch) inverse() {
	n := s.basis.n
	cos, alpha := s.basis.cos, s.basis.alpha
	for y := 0; y < n; y++ {
		for u := 0; u < n; u++ {
			var sum float64
			for v := 0; v < n; v++ {
				sum += alpha[v] * s.freq[v*n+u] * cos[v][y]
			}
			s.tmp[y*n+u] = sum
		}
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sum float64
			for u := 0; u < n; u++ {
				sum += alpha[u] * s.tmp[y*n+u] * cos[u][x]
			}
			s.block[y*n+x] = sum
		}
	}
}

// coeffParity is the bit a coefficient carries: the parity of its value
// rounded half away from zero. The same convention runs on embed and
// extract; changing it on one side only would flip bits at .5 boundaries.
func coeffParity(c float64) byte {
	return byte(int64(math.Round(c)) & 1)
}

// maxParityFixes bounds the verify loop in embedBlockBit. The default
// geometry never needs more than two corrections per block.
const maxParityFixes = 4

// embedBlockBit stores bit in the parity coefficient of block (bx,by). A
// block whose parity already matches is left byte-identical. Otherwise the
// coefficient is nudged one unit away from zero, the block is written back,
// and the stored integer samples are re-read to confirm the parity survived
// rounding and clipping; if it did not, single-sample corrections are
// applied until it does.
func (s *dctScratch) embedBlockBit(plane []uint8, w, bx, by int, bit byte, p Params) error {
	n := s.basis.n
	ci := p.CoeffRow*n + p.CoeffCol

	s.loadBlock(plane, w, bx, by)
	s.forward()
	if coeffParity(s.freq[ci]) == bit {
		return nil
	}
	if s.freq[ci] >= 0 {
		s.freq[ci]++
	} else {
		s.freq[ci]--
	}
	s.inverse()
	s.storeBlock(plane, w, bx, by)

	// перечитываем сохранённые целые сэмплы: округление и клиппинг могли
	// съесть сдвиг коэффициента, тогда правим блок поштучно.
	for attempt := 0; ; attempt++ {
		s.loadBlock(plane, w, bx, by)
		s.forward()
		if coeffParity(s.freq[ci]) == bit {
			return nil
		}
		if attempt == maxParityFixes {
			return fmt.Errorf("embedBlockBit: parity not settling in block (%d,%d)", bx, by)
		}
		if !s.fixStoredParity(plane, w, bx, by, p) {
			return fmt.Errorf("embedBlockBit: no adjustable sample in block (%d,%d)", bx, by)
		}
	}
}

// fixStoredParity moves the parity coefficient of the stored block by one
// unit, flipping its rounded parity. Movement away from zero is preferred:
// it cannot cross the sign boundary where rounding is not shift-invariant.
func (s *dctScratch) fixStoredParity(plane []uint8, w, bx, by int, p Params) bool {
	dir := 1.0
	if s.freq[p.CoeffRow*s.basis.n+p.CoeffCol] < 0 {
		dir = -1.0
	}
	return s.tryCoeffStep(plane, w, bx, by, dir, p) ||
		s.tryCoeffStep(plane, w, bx, by, -dir, p)
}

// tryCoeffStep adjusts a single stored sample by the integer amount whose
// basis contribution lands closest to want (±1 coefficient unit), skipping
// samples without headroom. Reports whether a usable sample existed.
func (s *dctScratch) tryCoeffStep(plane []uint8, w, bx, by int, want float64, p Params) bool {
	n := s.basis.n
	base := by*n*w + bx*n
	bestErr := math.MaxFloat64
	bestIdx, bestDelta := -1, 0
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			wgt := s.basis.weight(p.CoeffRow, p.CoeffCol, y, x)
			if wgt == 0 {
				continue
			}
			d := int(math.Round(want / wgt))
			if d == 0 {
				continue
			}
			idx := base + y*w + x
			v := int(plane[idx]) + d
			if v < 0 || v > 255 {
				continue
			}
			if e := math.Abs(wgt*float64(d) - want); e < bestErr {
				bestErr, bestIdx, bestDelta = e, idx, d
			}
		}
	}
	// a step that misses the unit by half or more cannot flip the parity
	if bestIdx < 0 || bestErr >= 0.5 {
		return false
	}
	plane[bestIdx] = uint8(int(plane[bestIdx]) + bestDelta)
	return true
}

// dctCapacity is one bit per whole transform block; edge remainders that
// do not fill a block carry nothing.
func dctCapacity(w, h int, p Params) int {
	return (h / p.BlockSize) * (w / p.BlockSize)
}

// dctEmbed writes one bit into the parity of each successive block of the
// plane, starting at block index from, in row-major block order. Blocks
// beyond the last bit are never transformed, so they stay byte-identical.
func dctEmbed(plane []uint8, w, h int, bits []byte, from int, p Params) error {
	total := dctCapacity(w, h, p)
	if from+len(bits) > total {
		return &CapacityError{Need: from + len(bits), Have: total}
	}
	if len(bits) == 0 {
		return nil
	}
	bw := w / p.BlockSize
	s := newDCTScratch(p.BlockSize)
	for i, bit := range bits {
		idx := from + i
		if err := s.embedBlockBit(plane, w, idx%bw, idx/bw, bit&1, p); err != nil {
			return err
		}
	}
	return nil
}

// dctExtract reads parity bits from up to count consecutive blocks starting
// at from. The result is shorter than count when blocks run out first.
func dctExtract(plane []uint8, w, h int, count, from int, p Params) []byte {
	total := dctCapacity(w, h, p)
	if from >= total || count <= 0 {
		return nil
	}
	if from+count > total {
		count = total - from
	}
	n := p.BlockSize
	bw := w / n
	ci := p.CoeffRow*n + p.CoeffCol
	s := newDCTScratch(n)
	bits := make([]byte, count)
	for i := range bits {
		idx := from + i
		s.loadBlock(plane, w, idx%bw, idx/bw)
		s.forward()
		bits[i] = coeffParity(s.freq[ci])
	}
	return bits
}
