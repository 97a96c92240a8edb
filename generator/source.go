package generator

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/ardanlabs/glgen/platform"
	"github.com/ardanlabs/glgen/resolver"
)

const loaderTmpl = `#if !defined(NULL)
#define NULL ((void*)0)
#endif

{{range .Platforms}}{{.Directive}}
{{.Policy.Prelude}}#include {{.Policy.Include}}
static {{.Policy.Handle}} libGL = NULL;
static const char *GL_LIBRARY_NAMES[] = {
{{- range $i, $lib := .Policy.Libraries}}{{if $i}},{{end}}
    "{{cstring $lib}}"
{{- end}}
};
#define GL_LIBRARY_OPEN(name) {{.Policy.Open}}
#define GL_LIBRARY_SYMBOL(name) {{.Policy.Symbol}}
#define GL_LIBRARY_CLOSE() {{.Policy.Close}}
{{- if .Policy.ProcAddress}}
#define GL_LOADER_PROC_ADDRESS "{{cstring .Policy.ProcAddress}}"
{{- end}}
{{end}}{{if not .Fallback}}#else
#error "No OpenGL loader for this platform"
{{end}}#endif

typedef void* (APIENTRYP PFNGLLOADERGETPROCADDRESSPROC_PRIVATE)(const char*);
static PFNGLLOADERGETPROCADDRESSPROC_PRIVATE glLoaderGetProcAddressPtr = NULL;

static int LoadGLLibrary(void) {
    unsigned int index;
    for (index = 0; index < (sizeof(GL_LIBRARY_NAMES) / sizeof(GL_LIBRARY_NAMES[0])); index++) {
        if ((libGL = GL_LIBRARY_OPEN(GL_LIBRARY_NAMES[index]))) {
#if defined(GL_LOADER_PROC_ADDRESS)
            glLoaderGetProcAddressPtr = (PFNGLLOADERGETPROCADDRESSPROC_PRIVATE)GL_LIBRARY_SYMBOL(GL_LOADER_PROC_ADDRESS);
#endif
            return 1;
        }
    }
    return 0;
}

static void CloseGLLibrary(void) {
    if (libGL) {
        GL_LIBRARY_CLOSE();
        libGL = NULL;
    }
    glLoaderGetProcAddressPtr = NULL;
}

static void* LoadGLProc(const char *name) {
    void* result = NULL;
    if (libGL == NULL)
        return NULL;

    if (glLoaderGetProcAddressPtr)
        result = glLoaderGetProcAddressPtr(name);
    if (!result)
        result = GL_LIBRARY_SYMBOL(name);

    return result;
}

int glInit(void) {
    int failures = -1;
    if (LoadGLLibrary()) {
        failures = 0;
{{.Resolve}}    }
    CloseGLLibrary();
    return failures;
}
`

var loader = template.Must(template.New("loader").
	Funcs(template.FuncMap{"cstring": cstring}).
	Parse(loaderTmpl))

type platformBlock struct {
	Directive string
	Policy    platform.Policy
}

func (g *Generator) writeDefinitions(w io.Writer) {
	g.eachVersion(w, func(f resolver.Function) string {
		return fmt.Sprintf("%s %s = (%s)((void*)0);", f.Proc, f.Storage(), f.Proc)
	})
	fmt.Fprintln(w)
}

func (g *Generator) writeLoader(w io.Writer) error {
	var blocks []platformBlock
	fallback := false

	for i, p := range g.opts.Platforms {
		var directive string
		switch {
		case i == 0 && p.Guard == "":
			return fmt.Errorf("platform %q: first policy needs a guard", p.Name)
		case i == 0:
			directive = "#if " + p.Guard
		case p.Guard != "":
			directive = "#elif " + p.Guard
		case i == len(g.opts.Platforms)-1:
			directive = "#else"
			fallback = true
		default:
			return fmt.Errorf("platform %q: only the last policy may omit its guard", p.Name)
		}

		if len(p.Libraries) == 0 {
			return fmt.Errorf("platform %q: no libraries", p.Name)
		}

		blocks = append(blocks, platformBlock{Directive: directive, Policy: p})
	}

	var resolve bytes.Buffer
	g.eachVersion(&resolve, func(f resolver.Function) string {
		return fmt.Sprintf("        if (!(%s = (%s)LoadGLProc(\"%s\")))\n            failures++;", f.Storage(), f.Proc, f.Name)
	})

	return loader.Execute(w, map[string]any{
		"Platforms": blocks,
		"Fallback":  fallback,
		"Resolve":   resolve.String(),
	})
}

// cstring escapes s for use inside a C string literal.
func cstring(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
