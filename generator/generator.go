package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ardanlabs/glgen/platform"
	"github.com/ardanlabs/glgen/resolver"
)

// Macros the generated code is keyed on.
const (
	versionMacro = "FUNGL_VERSION"
	implMacro    = "FUNGL_IMPLEMENTATION"
	headerGuard  = "FUNGL_WRAPPER_HEADER"
)

var ErrNothingToGenerate = errors.New("header and source output are both disabled")

type Options struct {
	HeaderName string
	SourceName string
	SingleName string

	EmitHeader    bool
	EmitSource    bool
	SeparateFiles bool
	DisableLoader bool

	// DebugWrapper is accepted for compatibility; it does not change the
	// generated code yet.
	DebugWrapper bool

	// License is copied into the comment opening every generated file.
	License string

	// PlatformHeader is the text of khrplatform.h. Its first four lines and
	// its last line are the include guard and are dropped.
	PlatformHeader       string
	PlatformHeaderSource string

	// DefaultVersion is the FUNGL_VERSION used when the consumer defines none.
	DefaultVersion string

	Platforms []platform.Policy
}

func DefaultOptions() Options {
	return Options{
		HeaderName:     "gl.h",
		SourceName:     "gl.c",
		SingleName:     "gl_single.h",
		EmitHeader:     true,
		EmitSource:     true,
		SeparateFiles:  true,
		DefaultVersion: "1000",
		Platforms:      platform.Policies(),
	}
}

type Generator struct {
	opts   Options
	result *resolver.Result
	table  resolver.FunctionTable
}

func New(opts Options, result *resolver.Result) *Generator {
	if opts.DefaultVersion == "" {
		opts.DefaultVersion = "1000"
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = platform.Policies()
	}

	return &Generator{
		opts:   opts,
		result: result,
		table:  result.Table(),
	}
}

// Generate renders every enabled artifact, keyed by file name.
func (g *Generator) Generate() (map[string]string, error) {
	if !g.opts.EmitHeader && !g.opts.EmitSource {
		return nil, ErrNothingToGenerate
	}

	files := make(map[string]string)

	if !g.opts.SeparateFiles {
		var buf bytes.Buffer
		if err := g.WriteHeader(&buf); err != nil {
			return nil, fmt.Errorf("generating header: %w", err)
		}
		if g.opts.EmitSource {
			if err := g.WriteSource(&buf); err != nil {
				return nil, fmt.Errorf("generating source: %w", err)
			}
		}
		files[g.opts.SingleName] = buf.String()

		return files, nil
	}

	if g.opts.EmitHeader {
		var buf bytes.Buffer
		if err := g.WriteHeader(&buf); err != nil {
			return nil, fmt.Errorf("generating header: %w", err)
		}
		files[g.opts.HeaderName] = buf.String()
	}

	if g.opts.EmitSource {
		var buf bytes.Buffer
		if err := g.WriteSource(&buf); err != nil {
			return nil, fmt.Errorf("generating source: %w", err)
		}
		files[g.opts.SourceName] = buf.String()
	}

	return files, nil
}

// WriteHeader renders the header to w.
func (g *Generator) WriteHeader(w io.Writer) error {
	var buf bytes.Buffer

	if err := g.writePrologue(&buf); err != nil {
		return fmt.Errorf("generating prologue: %w", err)
	}
	g.writeVersionMacros(&buf)
	g.writePlatformHeader(&buf)
	g.writeFeatureBlocks(&buf)
	g.writeRemainingTypes(&buf)
	g.writePointerTypedefs(&buf)
	g.writeFunctionMacros(&buf)
	g.writeExterns(&buf)
	g.writeFooter(&buf)

	_, err := buf.WriteTo(w)
	return err
}

// WriteSource renders the implementation to w. In single-file mode the
// output is meant to follow the header in the same file.
func (g *Generator) WriteSource(w io.Writer) error {
	var buf bytes.Buffer

	if g.opts.SeparateFiles {
		writeLicenseComment(&buf, g.opts.License)
		fmt.Fprintf(&buf, "#include \"%s\"\n", g.opts.HeaderName)
		fmt.Fprintf(&buf, "#include <stdlib.h>\n\n")
	} else {
		fmt.Fprintf(&buf, "\n#if defined(%s)\n", implMacro)
		fmt.Fprintf(&buf, "#include <stdlib.h>\n\n")
	}

	g.writeDefinitions(&buf)

	if !g.opts.DisableLoader {
		if err := g.writeLoader(&buf); err != nil {
			return fmt.Errorf("generating loader: %w", err)
		}
	}

	if !g.opts.SeparateFiles {
		fmt.Fprintf(&buf, "#endif // %s\n", implMacro)
	}

	_, err := buf.WriteTo(w)
	return err
}

func writeLicenseComment(w io.Writer, license string) {
	fmt.Fprintf(w, "/*\n\n This file was generated by glgen. DO NOT EDIT.\n")
	if license = strings.TrimSpace(license); license != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(license, "\n") {
			if line = strings.TrimRight(line, " \t\r"); line == "" {
				fmt.Fprintln(w)
				continue
			}
			fmt.Fprintf(w, " %s\n", line)
		}
	}
	fmt.Fprintf(w, "*/\n\n")
}

// versionBlock wraps body in a FUNGL_VERSION guard when it is not empty.
func versionBlock(w io.Writer, guard string, body []string) {
	if len(body) == 0 {
		return
	}

	fmt.Fprintf(w, "#if %s >= %s\n", versionMacro, guard)
	for _, line := range body {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "#endif\n")
}
