package loader

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type dll struct {
	handle      windows.Handle
	procAddress uintptr
}

// Open loads name with LoadLibrary and looks up procAddress in it.
func Open(name, procAddress string) (Library, error) {
	handle, err := windows.LoadLibrary(name)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", name, err)
	}

	lib := dll{handle: handle}
	if procAddress != "" {
		lib.procAddress = lib.Symbol(procAddress)
	}

	return &lib, nil
}

func (l *dll) ProcAddress(name string) uintptr {
	if l.procAddress == 0 {
		return 0
	}

	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}

	addr, _, _ := syscall.SyscallN(l.procAddress, uintptr(unsafe.Pointer(cname)))
	runtime.KeepAlive(cname)

	return addr
}

func (l *dll) Symbol(name string) uintptr {
	addr, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return 0
	}
	return addr
}

func (l *dll) Close() error {
	return windows.FreeLibrary(l.handle)
}
