// Package audio describes uploaded audio assets and converts them into the
// canonical recognizer input: 16kHz mono 16-bit PCM WAV.
//
// Conversion runs ffmpeg through the process package. A failed conversion is
// never fatal; the Normalizer falls back to the original file and reports
// the reason in its Outcome so the recognizer can try anyway.
package audio
