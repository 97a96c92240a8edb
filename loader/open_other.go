//go:build !(darwin || freebsd || linux || windows)

package loader

import (
	"fmt"
	"runtime"
)

func Open(name, _ string) (Library, error) {
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupported, runtime.GOOS, name)
}
