//go:build darwin || freebsd || linux

package loader

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

type dynamicLibrary struct {
	handle      uintptr
	procAddress uintptr
}

// Open loads name with dlopen and looks up procAddress in it.
func Open(name, procAddress string) (Library, error) {
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", name, err)
	}

	lib := dynamicLibrary{handle: handle}
	if procAddress != "" {
		lib.procAddress = lib.Symbol(procAddress)
	}

	return &lib, nil
}

func (l *dynamicLibrary) ProcAddress(name string) uintptr {
	if l.procAddress == 0 {
		return 0
	}

	cname, err := unix.BytePtrFromString(name)
	if err != nil {
		return 0
	}

	addr, _, _ := purego.SyscallN(l.procAddress, uintptr(unsafe.Pointer(cname)))
	runtime.KeepAlive(cname)

	return addr
}

func (l *dynamicLibrary) Symbol(name string) uintptr {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0
	}
	return addr
}

func (l *dynamicLibrary) Close() error {
	return purego.Dlclose(l.handle)
}
