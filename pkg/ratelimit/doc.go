// Package ratelimit provides request pacing for the album downloader.
//
// The token bucket limiter caps how many requests the download workers
// issue per refill period so large albums do not hammer the album
// provider. Pacing is optional; with a requests-per-minute setting of 0
// the Unlimited limiter is used and no request ever blocks.
//
// All limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
package ratelimit
