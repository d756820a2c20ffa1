// Package util holds small helpers shared across packages: size parsing for
// upload limits, secret masking for logs, file name sanitizing and pointer
// helpers.
package util
