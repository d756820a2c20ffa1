// Package resilience wraps calls to speech backends and the HTTP surface
// with fault-tolerance patterns.
//
//   - Retry: retries transient backend failures with exponential backoff
//   - CircuitBreaker: fails fast once a backend keeps erroring
//   - Bulkhead: caps concurrent synchronous transcriptions
//   - RateLimiter / KeyedRateLimiter: token buckets, optionally per client
//
// Failures that describe the audio rather than the backend (no speech,
// unsupported format) are neither retried nor counted against a breaker:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("azure"))
//	res, err := resilience.Call(cb, func() (*Response, error) {
//	    return resilience.Retry(ctx, resilience.DefaultRetryConfig(), post)
//	})
package resilience
