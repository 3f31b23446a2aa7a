package main

import "fmt"

// Params fixes the embedding geometry: which planes carry which stream and
// where inside a transform block the parity lives. Both sides of a
// round-trip must run with identical values.
type Params struct {
	BlockSize int // edge of a square transform block
	CoeffRow  int // parity coefficient row inside a block
	CoeffCol  int // parity coefficient column inside a block
	LSBPlane  int // plane index carrying the sample-LSB stream
	DCTPlane  int // plane index carrying block-parity overflow
}

// DefaultParams puts the LSB stream on the blue plane and the overflow on
// the parity of the green plane's (4,4) mid-frequency coefficient, leaving
// red untouched.
func DefaultParams() Params {
	return Params{BlockSize: 8, CoeffRow: 4, CoeffCol: 4, LSBPlane: 2, DCTPlane: 1}
}

func (p Params) validate() error {
	if p.BlockSize <= 0 {
		return fmt.Errorf("params: block size %d", p.BlockSize)
	}
	if p.CoeffRow < 0 || p.CoeffRow >= p.BlockSize || p.CoeffCol < 0 || p.CoeffCol >= p.BlockSize {
		return fmt.Errorf("params: coefficient (%d,%d) outside %d×%d block",
			p.CoeffRow, p.CoeffCol, p.BlockSize, p.BlockSize)
	}
	if p.LSBPlane < 0 || p.LSBPlane > 2 || p.DCTPlane < 0 || p.DCTPlane > 2 {
		return fmt.Errorf("params: plane indexes (%d,%d) outside [0,2]", p.LSBPlane, p.DCTPlane)
	}
	if p.LSBPlane == p.DCTPlane {
		return fmt.Errorf("params: both streams on plane %d", p.LSBPlane)
	}
	return nil
}

// totalCapacity counts the bits one raster can carry under p: one per
// sample of the LSB plane plus one per whole block of the DCT plane.
func totalCapacity(pm *Pixmap, p Params) int {
	return lsbCapacity(pm.Planes[p.LSBPlane]) + dctCapacity(pm.W, pm.H, p)
}

// hybridEmbed writes the frame into pm in place: the LSB plane fills first,
// the remainder overflows into DCT block parity. A frame that fits the LSB
// plane leaves the DCT plane byte-identical.
func hybridEmbed(pm *Pixmap, bits []byte, p Params) error {
	lc := lsbCapacity(pm.Planes[p.LSBPlane])
	if len(bits) <= lc {
		return lsbEmbed(pm.Planes[p.LSBPlane], bits)
	}
	if err := lsbEmbed(pm.Planes[p.LSBPlane], bits[:lc]); err != nil {
		return err
	}
	return dctEmbed(pm.Planes[p.DCTPlane], pm.W, pm.H, bits[lc:], 0, p)
}

// hybridExtract reads back up to n bits in embed order. The result is
// shorter than n when the raster cannot hold that many.
func hybridExtract(pm *Pixmap, n int, p Params) []byte {
	bits := lsbExtract(pm.Planes[p.LSBPlane], n)
	if len(bits) >= n {
		return bits
	}
	rest := dctExtract(pm.Planes[p.DCTPlane], pm.W, pm.H, n-len(bits), 0, p)
	return append(bits, rest...)
}
