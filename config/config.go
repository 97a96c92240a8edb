// Package config holds the settings that drive a generation run. Values come
// from defaults, an optional TOML or YAML file, GLGEN_* environment variables
// and finally command line flags, each layer overriding the previous one.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultRegistryURL       = "https://raw.githubusercontent.com/KhronosGroup/OpenGL-Registry/main/xml/gl.xml"
	DefaultPlatformHeaderURL = "https://registry.khronos.org/EGL/api/KHR/khrplatform.h"
)

type Config struct {
	Registry          string `toml:"registry" yaml:"registry"`
	PlatformHeader    string `toml:"platform_header" yaml:"platform_header"`
	RegistryURL       string `toml:"registry_url" yaml:"registry_url"`
	PlatformHeaderURL string `toml:"platform_header_url" yaml:"platform_header_url"`

	OutputDir  string `toml:"output_dir" yaml:"output_dir"`
	HeaderName string `toml:"header_name" yaml:"header_name"`
	SourceName string `toml:"source_name" yaml:"source_name"`
	SingleName string `toml:"single_name" yaml:"single_name"`

	EmitHeader    bool `toml:"emit_header" yaml:"emit_header"`
	EmitSource    bool `toml:"emit_source" yaml:"emit_source"`
	SeparateFiles bool `toml:"separate_files" yaml:"separate_files"`
	DisableLoader bool `toml:"disable_loader" yaml:"disable_loader"`
	DebugWrapper  bool `toml:"debug_wrapper" yaml:"debug_wrapper"`

	API            string `toml:"api" yaml:"api"`
	FeaturePattern string `toml:"feature_pattern" yaml:"feature_pattern"`
	TypeMarker     string `toml:"type_marker" yaml:"type_marker"`
	Versions       string `toml:"versions" yaml:"versions"`
	Profile        string `toml:"profile" yaml:"profile"`
	Strict         bool   `toml:"strict" yaml:"strict"`

	DefaultVersion string `toml:"default_version" yaml:"default_version"`
	LicenseFile    string `toml:"license_file" yaml:"license_file"`

	Debug bool `toml:"debug" yaml:"debug"`
}

func Default() Config {
	return Config{
		Registry:          filepath.Join("tools", "gl.xml"),
		PlatformHeader:    filepath.Join("tools", "khrplatform.h"),
		RegistryURL:       DefaultRegistryURL,
		PlatformHeaderURL: DefaultPlatformHeaderURL,
		OutputDir:         "fungl",
		HeaderName:        "gl.h",
		SourceName:        "gl.c",
		SingleName:        "gl_single.h",
		EmitHeader:        true,
		EmitSource:        true,
		SeparateFiles:     true,
		API:               "gl",
		FeaturePattern:    `^GL_VERSION_\d_\d$`,
		TypeMarker:        "GL",
		DefaultVersion:    "1000",
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, or .yaml and .yml.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}

	return cfg, nil
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func (c *Config) ApplyEnv() {
	strs := map[string]*string{
		"GLGEN_REGISTRY":            &c.Registry,
		"GLGEN_PLATFORM_HEADER":     &c.PlatformHeader,
		"GLGEN_REGISTRY_URL":        &c.RegistryURL,
		"GLGEN_PLATFORM_HEADER_URL": &c.PlatformHeaderURL,
		"GLGEN_OUTPUT_DIR":          &c.OutputDir,
		"GLGEN_API":                 &c.API,
		"GLGEN_VERSIONS":            &c.Versions,
		"GLGEN_PROFILE":             &c.Profile,
		"GLGEN_LICENSE_FILE":        &c.LicenseFile,
	}
	for key, dst := range strs {
		if v := clean(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"GLGEN_EMIT_HEADER":    &c.EmitHeader,
		"GLGEN_EMIT_SOURCE":    &c.EmitSource,
		"GLGEN_SEPARATE_FILES": &c.SeparateFiles,
		"GLGEN_DISABLE_LOADER": &c.DisableLoader,
		"GLGEN_STRICT":         &c.Strict,
	}
	for key, dst := range bools {
		if v := clean(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	// Any value other than an explicit false turns debugging on.
	if debug := clean("GLGEN_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		c.Debug = err != nil || d
	}
}

func (c Config) Validate() error {
	var errs []error

	if !c.EmitHeader && !c.EmitSource {
		errs = append(errs, errors.New("emit_header and emit_source are both false"))
	}
	if !c.SeparateFiles && !c.EmitHeader {
		errs = append(errs, errors.New("single-file output requires emit_header"))
	}
	if c.Registry == "" {
		errs = append(errs, errors.New("registry path is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.TypeMarker == "" {
		errs = append(errs, errors.New("type_marker is empty"))
	}
	if _, err := regexp.Compile(c.FeaturePattern); err != nil {
		errs = append(errs, fmt.Errorf("feature_pattern: %w", err))
	}
	if c.Versions != "" {
		if _, err := semver.NewConstraint(c.Versions); err != nil {
			errs = append(errs, fmt.Errorf("versions: %w", err))
		}
	}
	if _, err := strconv.Atoi(c.DefaultVersion); err != nil {
		errs = append(errs, fmt.Errorf("default_version %q is not a number", c.DefaultVersion))
	}
	switch c.Profile {
	case "", "core", "compatibility":
	default:
		errs = append(errs, fmt.Errorf("unknown profile %q", c.Profile))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// FeatureRegexp compiles FeaturePattern. Call Validate first.
func (c Config) FeatureRegexp() *regexp.Regexp {
	return regexp.MustCompile(c.FeaturePattern)
}

// VersionConstraints returns nil when no constraint is configured.
func (c Config) VersionConstraints() *semver.Constraints {
	if c.Versions == "" {
		return nil
	}
	constraints, err := semver.NewConstraint(c.Versions)
	if err != nil {
		return nil
	}
	return constraints
}

// License returns the license file contents, or nothing when none is set.
func (c Config) License() (string, error) {
	if c.LicenseFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.LicenseFile)
	if err != nil {
		return "", fmt.Errorf("reading license: %w", err)
	}
	return string(data), nil
}

// Output returns the path of a generated file.
func (c Config) Output(name string) string {
	return filepath.Join(c.OutputDir, name)
}
