// Pixveil hides short UTF-8 messages inside RGB images. The payload is
// framed as a 32-bit big-endian byte count followed by the message bits,
// MSB first, and lands in two planes: the blue channel's sample LSBs fill
// first, the remainder overflows into the parity of one mid-frequency DCT
// coefficient per 8×8 block of the green channel. Red never changes. An
// optional key brackets the message with SHA-256-derived fences; a wrong
// key at extraction yields the InvalidKey sentinel, not an error.
package main

import (
	"errors"
	"fmt"
)

// Tagged failure kinds. A key mismatch is deliberately not among them; it
// comes back as the InvalidKey result string.
var (
	// ErrInvalidImage marks an empty raster or mismatched plane sizes.
	ErrInvalidImage = errors.New("pixveil: invalid image")
	// ErrTruncated marks a stego raster too small to hold even the 32-bit
	// length header.
	ErrTruncated = errors.New("pixveil: truncated stego data")
)

// CapacityError reports a payload that does not fit its carrier. Both
// counts are bits.
type CapacityError struct {
	Need int
	Have int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("pixveil: payload needs %d bits, carrier holds %d", e.Need, e.Have)
}

// maxPayloadBytes caps the payload size a length header may declare on
// extraction. It exceeds the capacity of any raster the codec can address,
// so only corrupt headers ever hit it.
const maxPayloadBytes = 1 << 29

// EmbedMessage hides message inside img and returns the stego copy. The
// input raster is never modified; no plane is touched before the whole
// frame is known to fit. An empty key skips the key envelope.
func EmbedMessage(img *Pixmap, message, key string, p Params) (*Pixmap, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	bits := frameMessage([]byte(wrapKey(message, key)))
	if have := totalCapacity(img, p); len(bits) > have {
		return nil, &CapacityError{Need: len(bits), Have: have}
	}
	stego := img.Clone()
	if err := hybridEmbed(stego, bits, p); err != nil {
		return nil, err
	}
	return stego, nil
}

// ExtractMessage recovers the text hidden in img. A raster too small for
// the length header fails with ErrTruncated; a payload cut short by the
// raster edge is zero-padded rather than refused, so a clipped image still
// yields the readable prefix. A wrong key yields InvalidKey.
func ExtractMessage(img *Pixmap, key string, p Params) (string, error) {
	if err := img.validate(); err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}
	header := hybridExtract(img, lengthHeaderBits, p)
	if len(header) < lengthHeaderBits {
		return "", fmt.Errorf("ExtractMessage: %d of %d header bits: %w",
			len(header), lengthHeaderBits, ErrTruncated)
	}
	count := int64(bitsToUint32(header))
	if count > maxPayloadBytes {
		return "", fmt.Errorf("ExtractMessage: header declares %d payload bytes: %w",
			count, ErrTruncated)
	}
	totalBits := lengthHeaderBits + int(count)*8
	all := hybridExtract(img, totalBits, p)
	if len(all) < totalBits {
		// обрезанный носитель: добиваем нулями и отдаём читаемую часть.
		all = append(all, make([]byte, totalBits-len(all))...)
	}
	return unwrapKey(bitsToText(all[lengthHeaderBits:]), key), nil
}
