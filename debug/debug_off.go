//go:build !canterbury_debug

package debug

const DEBUG = false
