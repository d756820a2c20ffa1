package recognition

import "strings"

// Triage classifies raw backend error text. ok is false when no rule
// matches, in which case the text is reported as Canceled verbatim.
type Triage interface {
	Classify(raw string) (kind Kind, message string, ok bool)
}

// Rule maps a substring of backend error text to a Kind.
type Rule struct {
	Substring string
	Kind      Kind
	Message   string
}

// SubstringTriage applies Rules in order; the first match wins.
type SubstringTriage []Rule

// Classify implements Triage.
func (t SubstringTriage) Classify(raw string) (Kind, string, bool) {
	for _, r := range t {
		if r.Substring != "" && strings.Contains(raw, r.Substring) {
			return r.Kind, r.Message, true
		}
	}
	return Canceled, raw, false
}

// DefaultTriage returns the rules for Azure Speech error details.
// Code 1006 is the service's "no speech" websocket close.
func DefaultTriage() SubstringTriage {
	return SubstringTriage{
		{Substring: "1006", Kind: NoSpeechDetected, Message: MsgNoSpeech},
		{Substring: "No speech detected", Kind: NoSpeechDetected, Message: MsgNoSpeech},
		{Substring: "Authentication", Kind: AuthenticationFailed, Message: MsgAuthentication},
		{Substring: "401", Kind: AuthenticationFailed, Message: MsgAuthentication},
		{Substring: "403", Kind: AuthenticationFailed, Message: MsgAuthentication},
		{Substring: "BadRequest", Kind: UnsupportedOrCorruptFormat, Message: MsgUnsupportedFormat},
		{Substring: "Invalid WAV header", Kind: UnsupportedOrCorruptFormat, Message: MsgUnsupportedFormat},
		{Substring: "RIFF was not found", Kind: UnsupportedOrCorruptFormat, Message: MsgUnsupportedFormat},
	}
}
