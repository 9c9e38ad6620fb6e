// Package resource implements the memory budget shared by an index and its
// node allocations.
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage tracking. AcquireMemory is non-blocking and returns
// immediately with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20, // 64MB limit
//	})
//
//	if err := rc.AcquireMemory(n); err != nil {
//	    // ErrMemoryLimitExceeded: leave the structure unchanged
//	}
//	defer rc.ReleaseMemory(n)
//
// Structures reserve memory before they allocate, so a failed reservation
// never leaves a half-built node behind.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional limits without nil checks everywhere.
package resource
