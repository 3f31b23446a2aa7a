package main

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
)

func BenchmarkEmbedMessage(b *testing.B) {
	b.Run("lsb_256x256", func(b *testing.B) {
		cover := makeTestPixmap(256, 256)
		message := strings.Repeat("benchmark payload ", 56) // ~1 KiB, LSB only
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := EmbedMessage(cover, message, "", DefaultParams()); err != nil {
				b.Fatalf("EmbedMessage: %v", err)
			}
		}
	})
	b.Run("hybrid_128x128", func(b *testing.B) {
		cover := makeTestPixmap(128, 128)
		message := strings.Repeat("x", 2020) // frames past the LSB plane
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := EmbedMessage(cover, message, "bench", DefaultParams()); err != nil {
				b.Fatalf("EmbedMessage: %v", err)
			}
		}
	})
}

func BenchmarkExtractMessage(b *testing.B) {
	cover := makeTestPixmap(128, 128)
	stego, err := EmbedMessage(cover, strings.Repeat("x", 2020), "bench", DefaultParams())
	if err != nil {
		b.Fatalf("EmbedMessage: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ExtractMessage(stego, "bench", DefaultParams()); err != nil {
			b.Fatalf("ExtractMessage: %v", err)
		}
	}
}

func BenchmarkDCTEmbedPlane(b *testing.B) {
	p := DefaultParams()
	w, h := 256, 256
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8((i * 31) % 253)
	}
	rng := rand.New(rand.NewSource(1))
	bits := make([]byte, dctCapacity(w, h, p))
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}
	plane := make([]uint8, len(src))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(plane, src)
		if err := dctEmbed(plane, w, h, bits, 0, p); err != nil {
			b.Fatalf("dctEmbed: %v", err)
		}
	}
}

func BenchmarkStructuralSimilarity(b *testing.B) {
	cover := makeTestPixmap(256, 256)
	stego, err := EmbedMessage(cover, strings.Repeat("quality ", 100), "", DefaultParams())
	if err != nil {
		b.Fatalf("EmbedMessage: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := StructuralSimilarity(cover, stego); err != nil {
			b.Fatalf("StructuralSimilarity: %v", err)
		}
	}
}

// -----------------------------
// Summary table (single output)
// -----------------------------

type summaryRow struct {
	name      string
	result    testing.BenchmarkResult
	payloadB  int
	embedNS   int64
	extractNS int64
}

type summaryBenchFn func(*testing.B) (payloadB int, embedTotal, extractTotal time.Duration)

// Run with:
//
//	go test -run TestTimingSummary -v
func TestTimingSummary(t *testing.T) {
	rows := []summaryRow{
		runSummaryBench("lsb_64", benchRoundTrip(64, 64, 420, "")),
		runSummaryBench("hyb_128", benchRoundTrip(128, 128, 2020, "bench")),
		runSummaryBench("lsb_256", benchRoundTrip(256, 256, 2048, "")),
	}

	fmt.Println()
	fmt.Printf("%-8s  %10s  %10s  %12s  %12s  %9s  %10s\n", "shape", "embed_ms", "extract_ms", "ns/op", "B/op", "allocs/op", "payload(B)")
	fmt.Printf("%-8s  %10s  %10s  %12s  %12s  %9s  %10s\n", "--------", "----------", "----------", "------------", "------------", "---------", "----------")
	for _, r := range rows {
		fmt.Printf("%-8s  %10.3f  %10.3f  %12d  %12d  %9d  %10d\n",
			r.name,
			float64(r.embedNS)/1e6,
			float64(r.extractNS)/1e6,
			r.result.NsPerOp(),
			r.result.AllocedBytesPerOp(),
			r.result.AllocsPerOp(),
			r.payloadB,
		)
	}
}

func runSummaryBench(name string, fn summaryBenchFn) summaryRow {
	payloadB, embedTotal, extractTotal := 0, time.Duration(0), time.Duration(0)
	res := testing.Benchmark(func(b *testing.B) {
		payloadB, embedTotal, extractTotal = fn(b)
	})

	embedNS := int64(0)
	extractNS := int64(0)
	if res.N > 0 {
		embedNS = embedTotal.Nanoseconds() / int64(res.N)
		extractNS = extractTotal.Nanoseconds() / int64(res.N)
	}
	return summaryRow{name: name, result: res, payloadB: payloadB, embedNS: embedNS, extractNS: extractNS}
}

func benchRoundTrip(w, h, payloadB int, key string) summaryBenchFn {
	cover := makeTestPixmap(w, h)
	message := strings.Repeat("a", payloadB)
	return func(b *testing.B) (int, time.Duration, time.Duration) {
		var embedTotal, extractTotal time.Duration

		// Warm-up and reset so one-time allocations don't dominate the summary.
		stego, err := EmbedMessage(cover, message, key, DefaultParams())
		if err != nil {
			b.Fatalf("embed failed: %v", err)
		}
		if got, err := ExtractMessage(stego, key, DefaultParams()); err != nil || got != message {
			b.Fatalf("round trip failed: %q, %v", got, err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			startEmb := time.Now()
			stego, err := EmbedMessage(cover, message, key, DefaultParams())
			if err != nil {
				b.Fatalf("embed failed: %v", err)
			}
			embedTotal += time.Since(startEmb)

			startExt := time.Now()
			if _, err := ExtractMessage(stego, key, DefaultParams()); err != nil {
				b.Fatalf("extract failed: %v", err)
			}
			extractTotal += time.Since(startExt)
		}
		return payloadB, embedTotal, extractTotal
	}
}
