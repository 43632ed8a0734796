package testutils

import (
	"os"
	"runtime"
)

// IsUnixNonRoot returns true if the current operating system is Unix-like and not running as root.
// Permission based tests only make sense there.
func IsUnixNonRoot() bool {
	if o := runtime.GOOS; o != "linux" && o != "darwin" {
		return false
	}
	return os.Getuid() != 0
}
