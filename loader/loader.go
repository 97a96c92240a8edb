// Package loader resolves a function table against the host's OpenGL driver
// the same way the generated glInit does.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardanlabs/glgen/logutil"
	"github.com/ardanlabs/glgen/platform"
	"github.com/ardanlabs/glgen/resolver"
)

var (
	ErrLibraryOpen = errors.New("no OpenGL library could be opened")
	ErrUnsupported = errors.New("native library loading is not supported on this platform")
)

// Library is an opened driver library.
type Library interface {
	// ProcAddress asks the driver's get-proc-address entry point for name.
	// It returns 0 when the library has no such entry point or name is unknown.
	ProcAddress(name string) uintptr

	// Symbol looks name up in the library's dynamic symbol table.
	Symbol(name string) uintptr

	Close() error
}

// Opener opens the library at name. procAddress names the driver's
// get-proc-address entry point and may be empty.
type Opener func(name, procAddress string) (Library, error)

type State int

const (
	NotAttempted State = iota
	LibraryOpen
	Resolving
	Closed
)

func (s State) String() string {
	switch s {
	case NotAttempted:
		return "not attempted"
	case LibraryOpen:
		return "library open"
	case Resolving:
		return "resolving"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Loader struct {
	policy platform.Policy
	open   Opener
	logger *slog.Logger

	state     State
	library   string
	addresses map[string]uintptr
	missing   []string
}

func New(policy platform.Policy, open Opener, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		policy:    policy,
		open:      open,
		logger:    logger,
		addresses: make(map[string]uintptr),
	}
}

// Init opens the first library of the policy that loads, resolves every
// function in table and closes the library again. It returns the number of
// functions that could not be resolved, or -1 when no library opened.
func (l *Loader) Init(table resolver.FunctionTable) (failures int, err error) {
	l.state = NotAttempted
	l.library = ""
	l.addresses = make(map[string]uintptr)
	l.missing = nil

	lib, err := l.openLibrary()
	if err != nil {
		l.state = Closed
		return -1, err
	}

	defer func() {
		l.state = Closed
		if cerr := lib.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing %s: %w", l.library, cerr))
		}
	}()

	l.state = Resolving

	table.Each(func(v resolver.VersionFunctions, f resolver.Function) {
		addr := lib.ProcAddress(f.Name)
		if addr == 0 {
			addr = lib.Symbol(f.Name)
		}

		if addr == 0 {
			failures++
			l.missing = append(l.missing, f.Name)
			l.logger.Debug("function not resolved", "function", f.Name, "version", v.Number)
			return
		}

		l.addresses[f.Name] = addr
		logutil.Trace(l.logger, "resolved function", "function", f.Name, "address", fmt.Sprintf("%#x", addr))
	})

	return failures, nil
}

func (l *Loader) openLibrary() (Library, error) {
	var errs []error
	for _, name := range l.policy.Libraries {
		lib, err := l.open(name, l.policy.ProcAddress)
		if err != nil {
			l.logger.Debug("cannot open library", "library", name, "error", err)
			errs = append(errs, err)
			continue
		}

		l.library = name
		l.state = LibraryOpen
		l.logger.Debug("opened library", "library", name)
		return lib, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: policy %q lists no libraries", ErrLibraryOpen, l.policy.Name)
	}

	return nil, fmt.Errorf("%w: tried %s: %w", ErrLibraryOpen,
		strings.Join(l.policy.Libraries, ", "), errors.Join(errs...))
}

func (l *Loader) State() State {
	return l.state
}

// Library returns the name of the library the last Init opened.
func (l *Loader) Library() string {
	return l.library
}

// Address returns the resolved address of a function from the last Init.
func (l *Loader) Address(name string) (uintptr, bool) {
	addr, ok := l.addresses[name]
	return addr, ok
}

// Missing returns the functions the last Init could not resolve, in table order.
func (l *Loader) Missing() []string {
	return append([]string(nil), l.missing...)
}
