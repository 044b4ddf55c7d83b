// Package async provides a small future abstraction for running independent
// computations concurrently and joining their results.
//
// The notification pipeline uses it for fan-out dispatch: every item in a
// batch runs in its own goroutine and AwaitAll collects each outcome
// independently, so one failure never aborts its siblings.
package async
