// Package posix contains cross-platform implementations of the rm, mv and mkdir commands.
// Task scripts always use these instead of the host's binaries so that cleanup steps behave
// the same on every OS.
package posix
