package generator

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/ardanlabs/glgen/resolver"
)

const prologueTmpl = `#ifndef {{.HeaderGuard}}
#define {{.HeaderGuard}}
#ifdef __cplusplus
extern "C" {
#endif

#define FUNGL_POSIX
#if defined(macintosh) || defined(Macintosh) || (defined(__APPLE__) && defined(__MACH__))
#define FUNGL_MAC
#elif defined(_WIN32) || defined(_WIN64) || defined(__WIN32__) || defined(__WINDOWS__)
#define FUNGL_WINDOWS
#if !defined(FS_PLATFORM_FORCE_POSIX)
#undef FUNGL_POSIX
#endif
#elif defined(__gnu_linux__) || defined(__linux__) || defined(__unix__)
#define FUNGL_LINUX
#else
#error "Unknown platform"
#endif

#define __gl_glcorearb_h_ 1  /* Khronos core */
#define __gl_glext_h_ 1      /* Khronos compatibility */
#define __gl_h_ 1            /* Windows/Linux */
#define __GL_H__ 1           /* Windows */
#define __gl3_h_ 1           /* Mac */

#if defined(_WIN32) && !defined(APIENTRY) && !defined(__CYGWIN__) && !defined(__SCITECH_SNAP__)
#ifndef WIN32_LEAN_AND_MEAN
#define WIN32_LEAN_AND_MEAN 1
#endif
#include <windows.h>
#define APIENTRY __stdcall
#endif

#ifndef APIENTRY
#define APIENTRY
#endif
#ifndef APIENTRYP
#define APIENTRYP APIENTRY *
#endif
#ifndef GLAPI
#define GLAPI extern
#endif

#if !defined(EXPORT)
#if defined(FUNGL_WINDOWS)
#define EXPORT __declspec(dllexport)
#elif defined(FUNGL_EMSCRIPTEN)
#define EXPORT EMSCRIPTEN_KEEPALIVE
#else
#define EXPORT
#endif
#endif

#if !defined({{.VersionMacro}})
#define {{.VersionMacro}} {{.DefaultVersion}}
#endif
`

var prologue = template.Must(template.New("prologue").Parse(prologueTmpl))

func (g *Generator) writePrologue(w io.Writer) error {
	writeLicenseComment(w, g.opts.License)

	return prologue.Execute(w, map[string]string{
		"HeaderGuard":    headerGuard,
		"VersionMacro":   versionMacro,
		"DefaultVersion": g.opts.DefaultVersion,
	})
}

func (g *Generator) writeVersionMacros(w io.Writer) {
	for _, v := range g.result.Versions {
		fmt.Fprintf(w, "#define %s %s\n", v.Guard(), v.Encoded())
	}
}

// writePlatformHeader inlines khrplatform.h without its include guard. The
// opening comment line is left unterminated on purpose: the file's own
// license comment, starting on its fifth line, closes it.
func (g *Generator) writePlatformHeader(w io.Writer) {
	body := platformHeaderBody(g.opts.PlatformHeader)
	if body == nil {
		return
	}

	fmt.Fprintln(w)
	if g.opts.PlatformHeaderSource != "" {
		fmt.Fprintf(w, "/* khrplatform.h -- [%s]\n", g.opts.PlatformHeaderSource)
	} else {
		fmt.Fprintf(w, "/* khrplatform.h\n")
	}
	fmt.Fprintln(w, strings.Join(body, "\n"))
	fmt.Fprintf(w, "/* end of khrplatform.h */\n\n")
}

func platformHeaderBody(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= 5 {
		return nil
	}

	body := lines[4 : len(lines)-1]
	for i, line := range body {
		body[i] = strings.TrimRight(line, " \t")
	}
	return body
}

// writeFeatureBlocks emits what each version contributes before any pointer
// typedef: prefetched types, constants and the version's own types.
func (g *Generator) writeFeatureBlocks(w io.Writer) {
	for _, v := range g.result.Versions {
		for _, decl := range v.Prefetch {
			fmt.Fprintln(w, decl)
		}
		for _, e := range v.Enums {
			fmt.Fprintf(w, "#define %s %s\n", e.Name, e.Value)
		}
		versionBlock(w, v.Guard(), v.Types)
	}
}

func (g *Generator) writeRemainingTypes(w io.Writer) {
	fmt.Fprintln(w)
	for _, decl := range g.result.Remaining {
		fmt.Fprintln(w, decl)
	}
	if g.result.Handle != "" {
		fmt.Fprintln(w, g.result.Handle)
	}
	fmt.Fprintln(w)
}

// writePointerTypedefs declares each function's pointer type and renames the
// bare identifier to its storage so a system gl.h can coexist.
func (g *Generator) writePointerTypedefs(w io.Writer) {
	for _, vf := range g.table {
		var body []string
		for _, f := range vf.Functions {
			body = append(body,
				pointerTypedef(f),
				fmt.Sprintf("#define %s %s", f.Name, f.Storage()))
		}
		if len(body) == 0 {
			continue
		}
		versionBlock(w, vf.Guard, body)
		fmt.Fprintln(w)
	}
}

func pointerTypedef(f resolver.Function) string {
	return fmt.Sprintf("typedef %s (APIENTRYP %s)(%s);", f.Result, f.Proc, strings.Join(f.Params, ", "))
}

// writeFunctionMacros publishes the X-macro lists, one per version, for
// consumers that want to replay the function table themselves.
func (g *Generator) writeFunctionMacros(w io.Writer) {
	for _, vf := range g.table {
		fmt.Fprintf(w, "\n#define %s \\\n", vf.Macro)
		for _, f := range vf.Functions {
			fmt.Fprintf(w, "\tX(%s, %s) \\\n", f.Proc, f.Name)
		}
	}
	fmt.Fprintln(w)
}

func (g *Generator) writeExterns(w io.Writer) {
	g.eachVersion(w, func(f resolver.Function) string {
		return fmt.Sprintf("extern %s %s;", f.Proc, f.Storage())
	})
	fmt.Fprintln(w)
}

func (g *Generator) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "EXPORT int glInit(void);\n\n")
	fmt.Fprintf(w, "#ifdef __cplusplus\n}\n#endif\n")
	fmt.Fprintf(w, "#endif // %s\n", headerGuard)
}

// eachVersion renders one line per function through render, grouped in
// version guards. It backs the extern, definition and resolution sites.
func (g *Generator) eachVersion(w io.Writer, render func(resolver.Function) string) {
	for _, vf := range g.table {
		var body []string
		for _, f := range vf.Functions {
			body = append(body, render(f))
		}
		versionBlock(w, vf.Guard, body)
	}
}
