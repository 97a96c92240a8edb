package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join("tools", "gl.xml"), cfg.Registry)
	assert.Equal(t, filepath.Join("fungl", "gl.h"), cfg.Output(cfg.HeaderName))
	assert.Nil(t, cfg.VersionConstraints())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "glgen.toml", `
registry = "xml/gl.xml"
separate_files = false
versions = "<= 3.3"
profile = "core"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "xml/gl.xml", cfg.Registry)
	assert.False(t, cfg.SeparateFiles)
	assert.True(t, cfg.EmitHeader, "unset keys keep their defaults")
	assert.Equal(t, "core", cfg.Profile)
	require.NoError(t, cfg.Validate())

	constraints := cfg.VersionConstraints()
	require.NotNil(t, constraints)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "glgen.yaml", `
output_dir: out
disable_loader: true
api: gles2
feature_pattern: '^GL_ES_VERSION_\d_\d$'
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.DisableLoader)
	assert.Equal(t, "gles2", cfg.API)
	assert.True(t, cfg.FeatureRegexp().MatchString("GL_ES_VERSION_2_0"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "glgen.json", `{}`))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "glgen.toml", `unknown_key = 1`))
	require.Error(t, err)

	_, err = Load(writeFile(t, "glgen.yml", "unknown_key: 1\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GLGEN_REGISTRY", `"/tmp/gl.xml"`)
	t.Setenv("GLGEN_SEPARATE_FILES", "false")
	t.Setenv("GLGEN_STRICT", "not-a-bool")
	t.Setenv("GLGEN_DEBUG", "1")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "/tmp/gl.xml", cfg.Registry)
	assert.False(t, cfg.SeparateFiles)
	assert.False(t, cfg.Strict)
	assert.True(t, cfg.Debug)
}

func TestApplyEnvDebug(t *testing.T) {
	cases := map[string]bool{
		"0":     false,
		"false": false,
		"true":  true,
		"yes":   true,
	}

	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("GLGEN_DEBUG", value)

			cfg := Default()
			cfg.ApplyEnv()
			assert.Equal(t, want, cfg.Debug)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"nothing to emit": func(c *Config) { c.EmitHeader, c.EmitSource = false, false },
		"single no header": func(c *Config) {
			c.SeparateFiles = false
			c.EmitHeader = false
		},
		"bad pattern":         func(c *Config) { c.FeaturePattern = "(" },
		"bad constraint":      func(c *Config) { c.Versions = "not a version" },
		"bad default version": func(c *Config) { c.DefaultVersion = "4.5" },
		"unknown profile":     func(c *Config) { c.Profile = "es" },
		"empty marker":        func(c *Config) { c.TypeMarker = "" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLicense(t *testing.T) {
	cfg := Default()
	license, err := cfg.License()
	require.NoError(t, err)
	assert.Empty(t, license)

	cfg.LicenseFile = writeFile(t, "LICENSE", "The MIT License (MIT)\n")
	license, err = cfg.License()
	require.NoError(t, err)
	assert.Equal(t, "The MIT License (MIT)\n", license)
}
