package main

// lsbCapacity is one bit per sample of the plane.
func lsbCapacity(plane []uint8) int {
	return len(plane)
}

// lsbEmbed writes bits into the low bit of consecutive samples, starting
// at sample zero. Samples past the last bit keep their value.
func lsbEmbed(plane []uint8, bits []byte) error {
	if len(bits) > len(plane) {
		return &CapacityError{Need: len(bits), Have: len(plane)}
	}
	for i, b := range bits {
		plane[i] = plane[i]&^1 | b&1
	}
	return nil
}

// lsbExtract reads the low bit of up to n leading samples. The result is
// shorter than n when the plane runs out first.
func lsbExtract(plane []uint8, n int) []byte {
	if n > len(plane) {
		n = len(plane)
	}
	if n <= 0 {
		return nil
	}
	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		bits[i] = plane[i] & 1
	}
	return bits
}
