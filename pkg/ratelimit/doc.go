// Package ratelimit bounds outbound email volume with fixed minute, hour and
// day windows.
//
// The limiter separates checking from recording: Allow inspects every
// configured window without consuming quota, Record counts a completed send.
// The delivery queue loop is the single writer of the counters; it calls
// Allow before draining a batch and pauses queue-wide when any window is at
// its threshold.
//
// Two stores are provided: MemoryStore for single-process deployments and
// RedisStore for sharing windows across instances.
package ratelimit
