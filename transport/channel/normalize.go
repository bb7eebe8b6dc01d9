package channel

import (
	"path"
	"runtime"
	"strings"
)

// PipePrefix is the namespace of Windows named pipes.
const PipePrefix = `\\.\pipe\`

// Normalize maps a user supplied channel path to the platform address. A bare
// name becomes a named pipe on Windows; on other systems the path is only
// cleaned. Normalize is idempotent.
func Normalize(address string) string {
	return normalize(address, runtime.GOOS)
}

func normalize(address, goos string) string {
	if address == "" {
		return address
	}
	if goos == "windows" {
		if strings.HasPrefix(address, `\\`) || strings.ContainsAny(address, `/\:`) {
			return address
		}
		return PipePrefix + address
	}
	return path.Clean(address)
}
