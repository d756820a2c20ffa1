package recognition

import "strings"

// Result is the aggregate of every segment in a session.
type Result struct {
	// Text is the segment texts joined by a single space.
	Text string `json:"text"`
	// Confidence is the highest segment confidence, nil when none was reported.
	Confidence *float64 `json:"confidence,omitempty"`
	// Duration is the sum of segment durations in seconds.
	Duration float64 `json:"duration"`
	// Segments is the number of segments received.
	Segments int `json:"segments"`
}

type aggregator struct {
	parts      []string
	confidence *float64
	duration   float64
}

func (a *aggregator) add(seg SegmentEvent) {
	if strings.TrimSpace(seg.Text) != "" {
		a.parts = append(a.parts, seg.Text)
	}
	if seg.Confidence != nil && (a.confidence == nil || *seg.Confidence > *a.confidence) {
		c := *seg.Confidence
		a.confidence = &c
	}
	a.duration += seg.Duration
}

func (a *aggregator) result() Result {
	return Result{
		Text:       strings.TrimSpace(strings.Join(a.parts, " ")),
		Confidence: a.confidence,
		Duration:   a.duration,
		Segments:   len(a.parts),
	}
}
