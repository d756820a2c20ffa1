// Package recognition drives one streaming speech-recognition session per
// call and folds its events into a single Result.
//
// A Backend pushes SegmentEvent values onto a channel followed by exactly
// one terminal event (SessionEndEvent or CanceledEvent). The Adapter
// consumes the channel on the caller's goroutine; the first terminal event
// resolves the call and anything after it is drained and dropped. Backend
// error strings are classified by a Triage into the failure Kind taxonomy.
package recognition
