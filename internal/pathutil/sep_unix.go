//go:build !windows

package pathutil

// Separator is the path separator for the target platform.
const Separator = '/'
