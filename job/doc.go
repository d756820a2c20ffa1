// Package job tracks asynchronous transcription jobs and runs them.
//
// A Job moves from processing to completed or failed exactly once. The
// Orchestrator owns the uploaded asset for the life of the job and removes
// it, together with every file the normalizer derived from it, on every
// exit path.
package job
