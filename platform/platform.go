// Package platform describes how the OpenGL driver library is located and
// opened on each operating system family. The same policies drive the C
// loader template and the Go loader.
package platform

import "slices"

// Policy is one loader strategy. Open, Symbol and Close are C expressions;
// Open and Symbol take the library name or symbol name as "name" and the
// open handle as "libGL".
type Policy struct {
	Name string

	// Guard is the preprocessor condition selecting the policy. The last
	// policy in a list may leave it empty to act as the fallback.
	Guard string

	// GOOS lists the Go targets the policy applies to.
	GOOS []string

	Prelude string
	Include string
	Handle  string

	// Libraries are tried in order until one opens.
	Libraries []string

	Open   string
	Symbol string
	Close  string

	// ProcAddress is the driver's get-proc-address entry point, resolved from
	// the library after it opens. Empty when the platform has none.
	ProcAddress string
}

var (
	Windows = Policy{
		Name:  "windows",
		Guard: "defined(FUNGL_WINDOWS) || defined(__CYGWIN__)",
		GOOS:  []string{"windows"},
		Prelude: "#ifndef _WINDOWS_\n" +
			"#undef APIENTRY\n" +
			"#endif\n",
		Include:     "<windows.h>",
		Handle:      "HMODULE",
		Libraries:   []string{"opengl32.dll"},
		Open:        "LoadLibraryA(name)",
		Symbol:      "(void*)GetProcAddress(libGL, name)",
		Close:       "FreeLibrary(libGL)",
		ProcAddress: "wglGetProcAddress",
	}

	Apple = Policy{
		Name:    "apple",
		Guard:   "defined(FUNGL_MAC)",
		GOOS:    []string{"darwin", "ios"},
		Include: "<dlfcn.h>",
		Handle:  "void*",
		Libraries: []string{
			"../Frameworks/OpenGL.framework/OpenGL",
			"/Library/Frameworks/OpenGL.framework/OpenGL",
			"/System/Library/Frameworks/OpenGL.framework/OpenGL",
			"/System/Library/Frameworks/OpenGL.framework/Versions/Current/OpenGL",
		},
		Open:   "dlopen(name, RTLD_NOW | RTLD_GLOBAL)",
		Symbol: "dlsym(libGL, name)",
		Close:  "dlclose(libGL)",
	}

	Unix = Policy{
		Name:        "unix",
		GOOS:        []string{"linux", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos"},
		Include:     "<dlfcn.h>",
		Handle:      "void*",
		Libraries:   []string{"libGL.so.1", "libGL.so"},
		Open:        "dlopen(name, RTLD_NOW | RTLD_GLOBAL)",
		Symbol:      "dlsym(libGL, name)",
		Close:       "dlclose(libGL)",
		ProcAddress: "glXGetProcAddressARB",
	}
)

// Policies returns the loader policies in the order their guards are tested.
func Policies() []Policy {
	return []Policy{Windows, Apple, Unix}
}

// ForGOOS returns the policy for a Go target, falling back to Unix.
func ForGOOS(goos string) Policy {
	for _, p := range Policies() {
		if slices.Contains(p.GOOS, goos) {
			return p
		}
	}
	return Unix
}
