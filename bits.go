package main

import "strings"

// lengthHeaderBits is the size of the big-endian payload byte count that
// leads every embedded bitstream.
const lengthHeaderBits = 32

// bytesToBits expands data into one byte per bit, MSB first within every
// source byte.
func bytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// bitsToBytes packs bits (one per byte, MSB first) back into bytes. A
// trailing group of fewer than eight bits is silently dropped; partial
// bytes carry no recoverable character anyway.
func bitsToBytes(bits []byte) []byte {
	n := len(bits) / 8
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | bits[i*8+j]&1
		}
		out[i] = b
	}
	return out
}

// uint32ToBits spreads v over 32 bits, most significant first.
func uint32ToBits(v uint32) []byte {
	bits := make([]byte, lengthHeaderBits)
	for i := 0; i < lengthHeaderBits; i++ {
		bits[i] = byte(v >> (31 - i) & 1)
	}
	return bits
}

// bitsToUint32 reads the leading 32 bits back into a value. The slice must
// hold at least lengthHeaderBits entries.
func bitsToUint32(bits []byte) uint32 {
	var v uint32
	for i := 0; i < lengthHeaderBits; i++ {
		v = v<<1 | uint32(bits[i]&1)
	}
	return v
}

// frameMessage prefixes payload with its byte count and expands the whole
// frame to bits. This layout is what lands in the carrier planes.
func frameMessage(payload []byte) []byte {
	bits := make([]byte, 0, lengthHeaderBits+len(payload)*8)
	bits = append(bits, uint32ToBits(uint32(len(payload)))...)
	return append(bits, bytesToBits(payload)...)
}

// bitsToText packs payload bits into bytes and interprets them as UTF-8.
// Invalid sequences are dropped, not reported: a clipped or zero-padded
// extraction should still yield the readable part of the message.
func bitsToText(bits []byte) string {
	return strings.ToValidUTF8(string(bitsToBytes(bits)), "")
}
