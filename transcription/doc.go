// Package transcription defines the batch speech-to-text provider
// interface: one audio file in, one transcript with time-aligned segments
// out. Implementations live in subpackages (transcription/whisper); the
// recognition package bridges them into session events.
package transcription
