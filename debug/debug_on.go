//go:build canterbury_debug

package debug

// DEBUG enables instruction tracing and internal assertions.
const DEBUG = true
