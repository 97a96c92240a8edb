package resolver

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ardanlabs/glgen/logutil"
	"github.com/ardanlabs/glgen/parser"
)

// DefaultFeaturePattern matches the core API versions and excludes vendor and
// platform feature sets.
var DefaultFeaturePattern = regexp.MustCompile(`^GL_VERSION_\d_\d$`)

var identRe = regexp.MustCompile(`\w+`)

type Options struct {
	API            string
	FeaturePattern *regexp.Regexp

	// TypeMarker selects which parameter tokens are treated as registry types.
	TypeMarker string

	// Versions limits the emitted features. Nil keeps all of them.
	Versions *semver.Constraints

	// Profile drops require blocks tagged with a different profile.
	Profile string

	Logger *slog.Logger
}

type Enum struct {
	Name  string
	Value string
}

// Version is the delta a single feature adds over every lower version.
type Version struct {
	Feature parser.Feature
	Major   uint64
	Minor   uint64

	// Prefetch holds type declarations pulled in by the feature's commands.
	// They must precede any pointer typedef using them.
	Prefetch []string

	Enums     []Enum
	Types     []string
	Functions []Function
}

func (v Version) Guard() string {
	return v.Feature.Name
}

// Encoded returns the numeric value of the version macro, 4.5 -> 4050.
func (v Version) Encoded() string {
	return fmt.Sprintf("%d0%d0", v.Major, v.Minor)
}

func (v Version) FunctionsMacro() string {
	return fmt.Sprintf("GL_FUNCTIONS_%d_%d", v.Major, v.Minor)
}

type Result struct {
	Versions []Version

	// Remaining holds plain typedefs no feature asked for.
	Remaining []string

	Handle  string
	Defined *DefinedSet
}

// Table returns the per-version function lists shared by every emitter.
func (r *Result) Table() FunctionTable {
	table := make(FunctionTable, 0, len(r.Versions))
	for _, v := range r.Versions {
		table = append(table, VersionFunctions{
			Number:    v.Feature.Number,
			Guard:     v.Guard(),
			Macro:     v.FunctionsMacro(),
			Functions: v.Functions,
		})
	}
	return table
}

type resolver struct {
	reg     *parser.Registry
	opts    Options
	logger  *slog.Logger
	defined *DefinedSet
}

// Resolve walks the selected features in ascending version order and
// attributes every symbol to the lowest version that references it.
func Resolve(reg *parser.Registry, opts Options) (*Result, error) {
	if opts.FeaturePattern == nil {
		opts.FeaturePattern = DefaultFeaturePattern
	}
	if opts.TypeMarker == "" {
		opts.TypeMarker = "GL"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := resolver{
		reg:     reg,
		opts:    opts,
		logger:  logger,
		defined: NewDefinedSet(),
	}

	features := r.selectFeatures()
	if len(features) == 0 {
		return nil, fmt.Errorf("no feature matches %q for api %q", opts.FeaturePattern, opts.API)
	}

	res := Result{
		Handle:  reg.Handle,
		Defined: r.defined,
	}

	for _, f := range features {
		v := r.resolveFeature(f)

		r.logger.Debug("resolved feature",
			"feature", f.Name,
			"prefetch", len(v.Prefetch),
			"types", len(v.Types),
			"enums", len(v.Enums),
			"commands", len(v.Functions))

		res.Versions = append(res.Versions, v)
	}

	for _, t := range reg.Types {
		if r.defined.Has(t.Name) {
			continue
		}
		if !strings.HasPrefix(t.Decl, "typedef") || strings.HasPrefix(t.Decl, "typedef void (") {
			continue
		}
		r.defined.Add(t.Name)
		res.Remaining = append(res.Remaining, t.Decl)
	}

	return &res, nil
}

func (r *resolver) selectFeatures() []parser.Feature {
	var features []parser.Feature
	for _, f := range r.reg.Features {
		if f.Version == nil || !r.opts.FeaturePattern.MatchString(f.Name) {
			continue
		}
		if r.opts.API != "" && f.API != "" && f.API != r.opts.API {
			continue
		}
		if r.opts.Versions != nil && !r.opts.Versions.Check(f.Version) {
			r.logger.Debug("feature outside version constraint", "feature", f.Name)
			continue
		}
		features = append(features, f)
	}

	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Version.LessThan(features[j].Version)
	})

	return features
}

func (r *resolver) references(f parser.Feature) []parser.Reference {
	if r.opts.Profile == "" {
		return f.Requires
	}

	var refs []parser.Reference
	for _, ref := range f.Requires {
		if ref.Profile != "" && ref.Profile != r.opts.Profile {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func (r *resolver) resolveFeature(f parser.Feature) Version {
	v := Version{
		Feature: f,
		Major:   f.Version.Major(),
		Minor:   f.Version.Minor(),
	}

	refs := r.references(f)

	// Types used by this feature's commands go out first so that every
	// pointer typedef only names types declared above it.
	for _, ref := range refs {
		if ref.Kind != parser.KindCommand {
			continue
		}
		cmd, ok := r.reg.Commands[ref.Name]
		if !ok {
			continue
		}
		for _, text := range append([]string{cmd.Result}, cmd.Params...) {
			v.Prefetch = append(v.Prefetch, r.prefetch(text)...)
		}
	}

	for _, ref := range refs {
		if !r.defined.Add(ref.Name) {
			continue
		}
		logutil.Trace(r.logger, "attributing symbol", "feature", f.Name, "kind", ref.Kind, "name", ref.Name)

		switch ref.Kind {
		case parser.KindType:
			t, ok := r.reg.Type(ref.Name)
			if !ok {
				r.logger.Warn("feature requires unknown type", "feature", f.Name, "type", ref.Name)
				continue
			}
			v.Types = append(v.Types, t.Decl)

		case parser.KindEnum:
			value, ok := r.reg.Enums[ref.Name]
			if !ok {
				r.logger.Warn("feature requires unknown enum", "feature", f.Name, "enum", ref.Name)
				continue
			}
			v.Enums = append(v.Enums, Enum{Name: ref.Name, Value: value})

		case parser.KindCommand:
			cmd, ok := r.reg.Commands[ref.Name]
			if !ok {
				r.logger.Warn("feature requires unknown command", "feature", f.Name, "command", ref.Name)
				continue
			}
			v.Functions = append(v.Functions, Function{
				Proc:   ProcName(cmd.Name),
				Name:   cmd.Name,
				Result: cmd.Result,
				Params: cmd.Params,
			})
		}
	}

	return v
}

// prefetch returns the declarations of the undefined registry types named
// in text and marks them defined.
func (r *resolver) prefetch(text string) []string {
	var decls []string
	for _, tok := range identRe.FindAllString(text, -1) {
		if !strings.Contains(tok, r.opts.TypeMarker) || r.defined.Has(tok) {
			continue
		}
		t, ok := r.reg.Type(tok)
		if !ok {
			continue
		}
		r.defined.Add(tok)
		decls = append(decls, t.Decl)
	}
	return decls
}

// ProcName returns the pointer typedef name for a command, glFoo -> PFNGLFOOPROC.
func ProcName(command string) string {
	return "PFN" + strings.ToUpper(command) + "PROC"
}
