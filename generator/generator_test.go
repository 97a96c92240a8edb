package generator

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/glgen/parser"
	"github.com/ardanlabs/glgen/platform"
	"github.com/ardanlabs/glgen/resolver"
)

func fixture(t *testing.T) (*parser.Registry, *resolver.Result) {
	t.Helper()

	f, err := os.Open("../testdata/registry.xml")
	require.NoError(t, err)
	defer f.Close()

	reg, err := parser.Parse(f, parser.Options{API: "gl"})
	require.NoError(t, err)

	res, err := resolver.Resolve(reg, resolver.Options{API: "gl"})
	require.NoError(t, err)

	return reg, res
}

func fixtureOptions(t *testing.T) Options {
	t.Helper()

	khr, err := os.ReadFile("../testdata/khrplatform.h")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.PlatformHeader = string(khr)
	opts.PlatformHeaderSource = "https://registry.khronos.org/EGL/api/KHR/khrplatform.h"
	opts.License = "The MIT License (MIT)\n\nCopyright (c) 2022 George Watson"

	return opts
}

func generate(t *testing.T, opts Options) map[string]string {
	t.Helper()

	_, res := fixture(t)

	files, err := New(opts, res).Generate()
	require.NoError(t, err)

	return files
}

func TestGenerateSeparateFiles(t *testing.T) {
	files := generate(t, fixtureOptions(t))

	require.Len(t, files, 2)
	assert.Contains(t, files, "gl.h")
	assert.Contains(t, files, "gl.c")

	assert.True(t, strings.HasPrefix(files["gl.c"], "/*\n\n This file was generated by glgen. DO NOT EDIT.\n\n The MIT License (MIT)\n"))
	assert.Contains(t, files["gl.c"], "#include \"gl.h\"\n#include <stdlib.h>\n")
	assert.NotContains(t, files["gl.c"], "FUNGL_IMPLEMENTATION")
}

func TestVersionMacros(t *testing.T) {
	header := generate(t, fixtureOptions(t))["gl.h"]

	assert.Contains(t, header, "#define GL_VERSION_1_0 1000\n")
	assert.Contains(t, header, "#define GL_VERSION_3_2 3020\n")
	assert.Contains(t, header, "#define GL_VERSION_4_5 4050\n")
	assert.Contains(t, header, "#if !defined(FUNGL_VERSION)\n#define FUNGL_VERSION 1000\n#endif\n")
}

func TestParameterlessCommand(t *testing.T) {
	header := generate(t, fixtureOptions(t))["gl.h"]

	assert.Equal(t, 1, strings.Count(header, "typedef void (APIENTRYP PFNGLFLUSHPROC)(void);\n"))
	assert.Contains(t, header, "typedef const GLubyte * (APIENTRYP PFNGLGETSTRINGPROC)(GLenum name);\n")
}

func TestRepeatedCommandDeclaredOnce(t *testing.T) {
	doc := `<registry>
<types><type>typedef unsigned int <name>GLenum</name>;</type></types>
<commands>
  <command><proto>void <name>glFoo</name></proto></command>
  <command><proto>void <name>glBar</name></proto><param><ptype>GLenum</ptype> <name>mode</name></param></command>
</commands>
<feature api="gl" name="GL_VERSION_1_0" number="1.0"><require><command name="glFoo"/></require></feature>
<feature api="gl" name="GL_VERSION_1_1" number="1.1"><require><command name="glFoo"/><command name="glBar"/></require></feature>
</registry>`

	reg, err := parser.Parse(strings.NewReader(doc), parser.Options{API: "gl"})
	require.NoError(t, err)
	res, err := resolver.Resolve(reg, resolver.Options{API: "gl"})
	require.NoError(t, err)

	files, err := New(DefaultOptions(), res).Generate()
	require.NoError(t, err)
	header, source := files["gl.h"], files["gl.c"]

	assert.Equal(t, 1, strings.Count(header, "typedef void (APIENTRYP PFNGLFOOPROC)(void);"))
	assert.Equal(t, 1, strings.Count(header, "#define glFoo __glFoo"))
	assert.Contains(t, header, "#if FUNGL_VERSION >= GL_VERSION_1_0\n"+
		"typedef void (APIENTRYP PFNGLFOOPROC)(void);\n"+
		"#define glFoo __glFoo\n"+
		"#endif\n")
	assert.Contains(t, header, "#if FUNGL_VERSION >= GL_VERSION_1_1\n"+
		"typedef void (APIENTRYP PFNGLBARPROC)(GLenum mode);\n"+
		"#define glBar __glBar\n"+
		"#endif\n")

	assert.Contains(t, header, "#define GL_FUNCTIONS_1_0 \\\n\tX(PFNGLFOOPROC, glFoo) \\\n")
	assert.Contains(t, header, "#define GL_FUNCTIONS_1_1 \\\n\tX(PFNGLBARPROC, glBar) \\\n")
	assert.Equal(t, 1, strings.Count(header, "extern PFNGLFOOPROC __glFoo;"))

	assert.Equal(t, 1, strings.Count(source, "PFNGLFOOPROC __glFoo = (PFNGLFOOPROC)((void*)0);"))
	assert.Equal(t, 1, strings.Count(source, `LoadGLProc("glFoo")`))
}

var pointerTypedefRe = regexp.MustCompile(`(?m)^typedef (.*) \(APIENTRYP PFN\w+PROC\)\((.*)\);$`)
var identRe = regexp.MustCompile(`\w+`)

func TestTypesPrecedePointerTypedefs(t *testing.T) {
	reg, res := fixture(t)

	files, err := New(fixtureOptions(t), res).Generate()
	require.NoError(t, err)
	header := files["gl.h"]

	matches := pointerTypedefRe.FindAllStringSubmatchIndex(header, -1)
	require.Len(t, matches, 9)

	for _, m := range matches {
		line := header[m[0]:m[1]]
		used := header[m[2]:m[3]] + " " + header[m[4]:m[5]]

		for _, tok := range identRe.FindAllString(used, -1) {
			if !strings.Contains(tok, "GL") {
				continue
			}
			typ, ok := reg.Type(tok)
			require.True(t, ok, "unknown type %s in %s", tok, line)

			declAt := strings.Index(header, typ.Decl)
			require.GreaterOrEqual(t, declAt, 0, "%s never declared", tok)
			assert.Less(t, declAt, m[0], "%s declared after %s", tok, line)
		}
	}
}

func TestSymbolsEmittedOnce(t *testing.T) {
	reg, res := fixture(t)

	files, err := New(fixtureOptions(t), res).Generate()
	require.NoError(t, err)
	header := files["gl.h"]

	for name := range reg.Enums {
		if !res.Defined.Has(name) {
			continue
		}
		assert.Equal(t, 1, strings.Count(header, "#define "+name+" "), name)
	}

	for _, typ := range reg.Types {
		if !res.Defined.Has(typ.Name) {
			continue
		}
		assert.Equal(t, 1, strings.Count(header, typ.Decl), typ.Name)
	}

	assert.Equal(t, 1, strings.Count(header, "typedef unsigned int GLhandleARB;"))
}

func TestFeatureBlocks(t *testing.T) {
	header := generate(t, fixtureOptions(t))["gl.h"]

	assert.Contains(t, header, "typedef unsigned int GLbitfield;\n"+
		"typedef khronos_uint8_t GLubyte;\n"+
		"typedef unsigned int GLenum;\n"+
		"#define GL_DEPTH_BUFFER_BIT 0x00000100\n")
	assert.Contains(t, header, "#if FUNGL_VERSION >= GL_VERSION_1_0\ntypedef void GLvoid;\n#endif\n")
	assert.Contains(t, header, "#define GL_TIMEOUT_IGNORED 0xFFFFFFFFFFFFFFFF\n")
	assert.Contains(t, header, "typedef khronos_intptr_t GLintptr;\n#ifdef __APPLE__\n")
}

func TestPlatformHeaderInlined(t *testing.T) {
	header := generate(t, fixtureOptions(t))["gl.h"]

	assert.Contains(t, header, "/* khrplatform.h -- [https://registry.khronos.org/EGL/api/KHR/khrplatform.h]\n"+
		"** Stand-in for the Khronos platform header used by the glgen tests.\n*/\n")
	assert.Contains(t, header, "typedef float                   khronos_float_t;\n\n/* end of khrplatform.h */\n")
	assert.NotContains(t, header, "__khrplatform_h_")

	versions := strings.Index(header, "#define GL_VERSION_4_5 4050")
	khr := strings.Index(header, "/* khrplatform.h")
	types := strings.Index(header, "typedef unsigned int GLbitfield;")
	assert.Less(t, versions, khr)
	assert.Less(t, khr, types)
}

func TestPlatformHeaderBody(t *testing.T) {
	assert.Nil(t, platformHeaderBody(""))
	assert.Nil(t, platformHeaderBody("a\nb\nc\nd\ne\n"))
	assert.Equal(t, []string{"e", "f"}, platformHeaderBody("a\nb\nc\nd\ne  \nf\ng\n"))
}

func TestHeaderFooter(t *testing.T) {
	header := generate(t, fixtureOptions(t))["gl.h"]

	assert.True(t, strings.HasSuffix(header, "EXPORT int glInit(void);\n\n#ifdef __cplusplus\n}\n#endif\n#endif // FUNGL_WRAPPER_HEADER\n"))
	assert.Contains(t, header, "#if FUNGL_VERSION >= GL_VERSION_1_0\nextern PFNGLCLEARPROC __glClear;\n")
}

func TestLoader(t *testing.T) {
	source := generate(t, fixtureOptions(t))["gl.c"]

	assert.Contains(t, source, "#if FUNGL_VERSION >= GL_VERSION_1_0\nPFNGLCLEARPROC __glClear = (PFNGLCLEARPROC)((void*)0);\n")

	assert.Contains(t, source, "#if defined(FUNGL_WINDOWS) || defined(__CYGWIN__)\n#ifndef _WINDOWS_\n#undef APIENTRY\n#endif\n#include <windows.h>\nstatic HMODULE libGL = NULL;\n")
	assert.Contains(t, source, "static const char *GL_LIBRARY_NAMES[] = {\n    \"opengl32.dll\"\n};\n")
	assert.Contains(t, source, "#define GL_LOADER_PROC_ADDRESS \"wglGetProcAddress\"\n")
	assert.Contains(t, source, "#elif defined(FUNGL_MAC)\n#include <dlfcn.h>\n")
	assert.Contains(t, source, "#else\n#include <dlfcn.h>\nstatic void* libGL = NULL;\n")
	assert.Contains(t, source, "    \"libGL.so.1\",\n    \"libGL.so\"\n};\n")
	assert.Contains(t, source, "#define GL_LOADER_PROC_ADDRESS \"glXGetProcAddressARB\"\n#endif\n")
	assert.NotContains(t, source, "#error")

	assert.Contains(t, source, "#if FUNGL_VERSION >= GL_VERSION_4_3\n"+
		"        if (!(__glDebugMessageCallback = (PFNGLDEBUGMESSAGECALLBACKPROC)LoadGLProc(\"glDebugMessageCallback\")))\n"+
		"            failures++;\n"+
		"#endif\n")
	assert.True(t, strings.HasSuffix(source, "    }\n    CloseGLLibrary();\n    return failures;\n}\n"))
	assert.Equal(t, 9, strings.Count(source, "failures++;"))
}

func TestLoaderWithoutFallback(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Platforms = []platform.Policy{platform.Windows}

	source := generate(t, opts)["gl.c"]
	assert.Contains(t, source, "#else\n#error \"No OpenGL loader for this platform\"\n#endif\n")
}

func TestLoaderInvalidPolicies(t *testing.T) {
	_, res := fixture(t)

	opts := fixtureOptions(t)
	opts.Platforms = []platform.Policy{platform.Unix, platform.Windows}

	_, err := New(opts, res).Generate()
	require.Error(t, err)
}

func TestDisableLoader(t *testing.T) {
	opts := fixtureOptions(t)
	opts.DisableLoader = true

	source := generate(t, opts)["gl.c"]
	assert.Contains(t, source, "PFNGLCLEARPROC __glClear")
	assert.NotContains(t, source, "int glInit(void) {")
	assert.NotContains(t, source, "dlopen")
}

func TestSingleFile(t *testing.T) {
	opts := fixtureOptions(t)
	opts.SeparateFiles = false

	files := generate(t, opts)
	require.Len(t, files, 1)

	single := files["gl_single.h"]
	guard := strings.Index(single, "#endif // FUNGL_WRAPPER_HEADER")
	impl := strings.Index(single, "#if defined(FUNGL_IMPLEMENTATION)\n#include <stdlib.h>\n")
	require.GreaterOrEqual(t, guard, 0)
	assert.Less(t, guard, impl)
	assert.True(t, strings.HasSuffix(single, "#endif // FUNGL_IMPLEMENTATION\n"))
	assert.NotContains(t, single, "#include \"gl.h\"")
}

func TestHeaderOnly(t *testing.T) {
	opts := fixtureOptions(t)
	opts.EmitSource = false

	files := generate(t, opts)
	require.Len(t, files, 1)
	assert.Contains(t, files, "gl.h")
}

func TestNothingToGenerate(t *testing.T) {
	_, res := fixture(t)

	opts := DefaultOptions()
	opts.EmitHeader = false
	opts.EmitSource = false

	_, err := New(opts, res).Generate()
	require.ErrorIs(t, err, ErrNothingToGenerate)
}

func TestDeterministic(t *testing.T) {
	first := generate(t, fixtureOptions(t))
	second := generate(t, fixtureOptions(t))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("generation is not reproducible (-first +second):\n%s", diff)
	}
}

func TestCString(t *testing.T) {
	assert.Equal(t, `C:\\gl\\\"x\".dll`, cstring(`C:\gl\"x".dll`))
}
