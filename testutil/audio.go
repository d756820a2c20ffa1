package testutil

import (
	"math"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone returns seconds of a 440Hz sine wave at rate as 16-bit samples.
func Tone(rate int, seconds float64) []int {
	n := int(float64(rate) * seconds)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return samples
}

// WriteWAV encodes mono 16-bit PCM samples at rate into a WAV file at path.
func WriteWAV(t testing.TB, path string, samples []int, rate int) string {
	t.Helper()
	return WriteWAVFormat(t, path, samples, rate, 1, 16)
}

// WriteWAVFormat encodes interleaved PCM samples with an explicit channel
// count and bit depth.
func WriteWAVFormat(t testing.TB, path string, samples []int, rate, channels, bitDepth int) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	return path
}
