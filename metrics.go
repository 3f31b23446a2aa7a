package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
)

var ErrSizeMismatch = errors.New("pixveil: image sizes differ")

// Report carries the carrier-quality comparison between a cover raster and
// its stego counterpart.
type Report struct {
	MSE  float64 `json:"mse"`
	PSNR float64 `json:"psnr"`
	SSIM float64 `json:"ssim"`
}

func (r Report) String() string {
	return fmt.Sprintf("MSE %.4f  PSNR %.2f dB  SSIM %.4f", r.MSE, r.PSNR, r.SSIM)
}

// MarshalJSON renders an infinite PSNR (identical rasters) as null, which
// encoding/json otherwise refuses to emit.
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	if !math.IsInf(r.PSNR, 0) {
		return json.Marshal(alias(r))
	}
	return json.Marshal(struct {
		alias
		PSNR any `json:"psnr"`
	}{alias: alias(r)})
}

func checkPair(a, b *Pixmap) error {
	if err := a.validate(); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	if a.W != b.W || a.H != b.H {
		return fmt.Errorf("%dx%d vs %dx%d: %w", a.W, a.H, b.W, b.H, ErrSizeMismatch)
	}
	return nil
}

// MeanSquaredError averages squared sample differences over all three
// planes.
func MeanSquaredError(a, b *Pixmap) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for p := range a.Planes {
		pa, pb := a.Planes[p], b.Planes[p]
		for i := range pa {
			d := float64(pa[i]) - float64(pb[i])
			sum += d * d
		}
	}
	return sum / float64(3*a.W*a.H), nil
}

func psnrFromMSE(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(255/math.Sqrt(mse))
}

// PeakSignalToNoise is the usual dB measure against the 8-bit peak, +Inf
// for identical rasters.
func PeakSignalToNoise(a, b *Pixmap) (float64, error) {
	mse, err := MeanSquaredError(a, b)
	if err != nil {
		return 0, err
	}
	return psnrFromMSE(mse), nil
}

// lumaPlane converts to Rec.601 luma with integer rounding.
func lumaPlane(pm *Pixmap) []float64 {
	out := make([]float64, pm.W*pm.H)
	r, g, b := pm.Planes[0], pm.Planes[1], pm.Planes[2]
	for i := range out {
		out[i] = float64((299*int(r[i]) + 587*int(g[i]) + 114*int(b[i]) + 500) / 1000)
	}
	return out
}

// ssimKernel is the 11-tap Gaussian window, σ=1.5.
var ssimKernel = gaussianKernel(11, 1.5)

func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect101 mirrors an out-of-range index around the edge sample without
// repeating it.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// gaussianBlur runs the separable window over src, horizontal then
// vertical pass, with mirrored borders.
func gaussianBlur(src []float64, w, h int) []float64 {
	half := len(ssimKernel) / 2
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : y*w+w]
		for x := 0; x < w; x++ {
			var s float64
			for t, kv := range ssimKernel {
				s += kv * row[reflect101(x+t-half, w)]
			}
			tmp[y*w+x] = s
		}
	}
	dst := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for t, kv := range ssimKernel {
				s += kv * tmp[reflect101(y+t-half, h)*w+x]
			}
			dst[y*w+x] = s
		}
	}
	return dst
}

// StructuralSimilarity computes mean SSIM over the luma plane with the
// standard stability constants (K1=0.01, K2=0.03, L=255).
func StructuralSimilarity(a, b *Pixmap) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	la, lb := lumaPlane(a), lumaPlane(b)
	w, h := a.W, a.H

	aa := make([]float64, len(la))
	bb := make([]float64, len(la))
	ab := make([]float64, len(la))
	for i := range la {
		aa[i] = la[i] * la[i]
		bb[i] = lb[i] * lb[i]
		ab[i] = la[i] * lb[i]
	}

	// пять независимых размытий, раскидываем по горутинам
	var muA, muB, sAA, sBB, sAB []float64
	var wg sync.WaitGroup
	blur := func(dst *[]float64, src []float64) {
		defer wg.Done()
		*dst = gaussianBlur(src, w, h)
	}
	wg.Add(5)
	go blur(&muA, la)
	go blur(&muB, lb)
	go blur(&sAA, aa)
	go blur(&sBB, bb)
	go blur(&sAB, ab)
	wg.Wait()

	const (
		c1 = (0.01 * 255) * (0.01 * 255)
		c2 = (0.03 * 255) * (0.03 * 255)
	)
	var sum float64
	for i := range muA {
		ma, mb := muA[i], muB[i]
		va := sAA[i] - ma*ma
		vb := sBB[i] - mb*mb
		cov := sAB[i] - ma*mb
		sum += ((2*ma*mb + c1) * (2*cov + c2)) / ((ma*ma + mb*mb + c1) * (va + vb + c2))
	}
	return sum / float64(len(muA)), nil
}

// Evaluate bundles all three measures into one report.
func Evaluate(a, b *Pixmap) (Report, error) {
	mse, err := MeanSquaredError(a, b)
	if err != nil {
		return Report{}, err
	}
	ssim, err := StructuralSimilarity(a, b)
	if err != nil {
		return Report{}, err
	}
	return Report{MSE: mse, PSNR: psnrFromMSE(mse), SSIM: ssim}, nil
}
