package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

const (
	canonicalRate     = 16000
	canonicalChannels = 1
	canonicalDepth    = 16
)

// Format describes the PCM layout of a WAV file.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// IsCanonical reports 16kHz mono 16-bit PCM.
func (f Format) IsCanonical() bool {
	return f.SampleRate == canonicalRate && f.Channels == canonicalChannels && f.BitDepth == canonicalDepth
}

// String renders the format for logs, e.g. "16000Hz/1ch/16bit".
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// Inspect decodes the header of the WAV file at path.
func Inspect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Format{}, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Format{}, fmt.Errorf("audio: find PCM data in %s: %w", path, err)
	}
	format := Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	format.Duration = format.pcmDuration(dec.PCMLen())
	return format, nil
}

// pcmDuration is the play time of size bytes of PCM data. Decoder.Duration
// divides the whole RIFF payload, headers included, so it is not used.
func (f Format) pcmDuration(size int64) time.Duration {
	bytesPerSecond := int64(f.SampleRate * f.Channels * f.BitDepth / 8)
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(size * int64(time.Second) / bytesPerSecond)
}
