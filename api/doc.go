// Package api exposes the transcription HTTP surface on gin: upload intake,
// job status polling and streaming, the synchronous transcribe route and the
// supported language list.
//
// Routes are registered on any gin.IRouter so the service can mount them at
// the root and under /api/transcription.
package api
