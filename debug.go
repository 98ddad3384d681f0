//go:build !js

package scopecache

import (
	"fmt"
	"os"
)

func debugLog(format string, args ...any) { // NOCOVER
	fmt.Fprintf(os.Stderr, format, args...)
}
