package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
)

// Formats the tool can write. All three are lossless; writing stego output
// through a lossy encoder would destroy the payload, so JPEG and GIF are
// accepted as cover input only.
const (
	formatPNG = "png"
	formatBMP = "bmp"
	formatQOI = "qoi"
)

var ErrUnknownFormat = errors.New("pixveil: unknown image format")

// formatForPath maps a file extension to a format name, or "" for
// anything unrecognized.
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return formatPNG
	case ".bmp":
		return formatBMP
	case ".qoi":
		return formatQOI
	default:
		return ""
	}
}

// DecodePixmap reads one image from r into channel planes. QOI needs the
// format hint since its magic is not registered for sniffing; everything
// else (PNG, BMP, JPEG, GIF) is detected from the stream itself.
func DecodePixmap(r io.Reader, format string) (*Pixmap, error) {
	var (
		img image.Image
		err error
	)
	if format == formatQOI {
		img, err = qoi.Decode(r)
	} else {
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// EncodePixmap writes pm to w in the named lossless format.
func EncodePixmap(w io.Writer, pm *Pixmap, format string) error {
	switch format {
	case formatPNG:
		return png.Encode(w, pm.Image())
	case formatBMP:
		return bmp.Encode(w, pm.Image())
	case formatQOI:
		return qoi.Encode(w, pm.Image())
	default:
		return fmt.Errorf("encode %q: %w", format, ErrUnknownFormat)
	}
}

// LoadPixmap decodes the image file at path.
func LoadPixmap(path string) (*Pixmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pm, err := DecodePixmap(f, formatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pm, nil
}

// SavePixmap writes pm to path in the format its extension names. Lossy
// and unknown extensions are refused.
func SavePixmap(path string, pm *Pixmap) error {
	format := formatForPath(path)
	if format == "" {
		return fmt.Errorf("save %s: %w", path, ErrUnknownFormat)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodePixmap(f, pm, format); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
