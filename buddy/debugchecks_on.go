//go:build !nodebugchecks

package buddy

// DebugChecks gates the double-free assertion in markAsFree: freeing a
// chunk whose descriptor does not say ARENA is undefined behavior per
// spec.md §7.3, but this build enforces it as a fatal integrity error
// instead of silently corrupting the pool. Build with -tags nodebugchecks
// to drop the extra check in a release binary that trusts its callers.
const DebugChecks = true
