//go:build nodebugchecks

package buddy

// DebugChecks disabled: see debugchecks_on.go.
const DebugChecks = false
