package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrMalformed is returned in strict mode when a registry node is missing
// required content.
var ErrMalformed = errors.New("malformed registry node")

type Options struct {
	// API selects which api="..." variants are kept. Empty keeps every variant.
	API    string
	Strict bool
	Logger *slog.Logger
}

type parser struct {
	opts   Options
	logger *slog.Logger
	reg    *Registry
}

// Parse reads a registry document and normalizes its types, enums, commands
// and features.
func Parse(r io.Reader, opts Options) (*Registry, error) {
	root, err := decode(r)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := parser{
		opts:   opts,
		logger: logger,
		reg: &Registry{
			Enums:     make(map[string]string),
			Commands:  make(map[string]Command),
			typeIndex: make(map[string]int),
		},
	}

	if err := p.parseTypes(root); err != nil {
		return nil, fmt.Errorf("parsing types: %w", err)
	}

	if err := p.parseEnums(root); err != nil {
		return nil, fmt.Errorf("parsing enums: %w", err)
	}

	if err := p.parseCommands(root); err != nil {
		return nil, fmt.Errorf("parsing commands: %w", err)
	}

	if err := p.parseFeatures(root); err != nil {
		return nil, fmt.Errorf("parsing features: %w", err)
	}

	p.logger.Debug("parsed registry",
		"types", len(p.reg.Types),
		"enums", len(p.reg.Enums),
		"commands", len(p.reg.Commands),
		"features", len(p.reg.Features),
		"warnings", p.reg.Warnings)

	return p.reg, nil
}

// malformed reports a dropped node. In strict mode it becomes an error.
func (p *parser) malformed(msg string, args ...any) error {
	if p.opts.Strict {
		return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(msg, args...))
	}

	p.reg.Warnings++
	p.logger.Warn("skipping registry node", "reason", fmt.Sprintf(msg, args...))

	return nil
}

func (p *parser) apiMatches(n *node) bool {
	api := n.attr("api")
	return api == "" || p.opts.API == "" || api == p.opts.API
}

func (p *parser) parseTypes(root *node) error {
	for _, types := range root.findAll("types") {
		for _, t := range types.elements() {
			if t.name != "type" || !p.apiMatches(t) {
				continue
			}

			decl := strings.TrimSpace(typeText(t))

			var name string
			if n := t.find("name"); n != nil {
				name = strings.TrimSpace(n.innerText())
			}

			if name != "" {
				p.reg.addType(Type{
					Name:     name,
					Decl:     decl,
					API:      t.attr("api"),
					Requires: t.attr("requires"),
				})
				continue
			}

			if decl == "" {
				if err := p.malformed("type %q has no declaration", t.attr("name")); err != nil {
					return err
				}
				continue
			}

			if strings.HasPrefix(decl, "#include") {
				continue
			}

			if p.reg.Handle != "" {
				if err := p.malformed("second unnamed type declaration %q", t.attr("name")); err != nil {
					return err
				}
				continue
			}

			p.reg.Handle = decl
		}
	}

	return nil
}

// typeText flattens a <type> element, replacing <apientry/> with APIENTRY.
func typeText(n *node) string {
	if !n.isElement() {
		return n.text
	}
	if n.name == "apientry" {
		return "APIENTRY"
	}

	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(typeText(c))
	}
	return b.String()
}

func (r *Registry) addType(t Type) {
	if i, ok := r.typeIndex[t.Name]; ok {
		r.Types[i] = t
		return
	}

	r.typeIndex[t.Name] = len(r.Types)
	r.Types = append(r.Types, t)
}

func (p *parser) parseEnums(root *node) error {
	for _, enums := range root.findAll("enums") {
		for _, e := range enums.elements() {
			if e.name != "enum" || !p.apiMatches(e) {
				continue
			}

			name := e.attr("name")
			value, ok := e.lookupAttr("value")
			if name == "" || !ok {
				if err := p.malformed("enum %q without name or value", name); err != nil {
					return err
				}
				continue
			}

			p.reg.Enums[name] = value
		}
	}

	return nil
}

func (p *parser) parseCommands(root *node) error {
	for _, commands := range root.findAll("commands") {
		for _, c := range commands.elements() {
			if c.name != "command" || !p.apiMatches(c) {
				continue
			}

			cmd, ok := parseCommand(c)
			if !ok {
				if err := p.malformed("command without a named <proto>"); err != nil {
					return err
				}
				continue
			}

			p.reg.Commands[cmd.Name] = cmd
		}
	}

	return nil
}

func parseCommand(c *node) (Command, bool) {
	proto := c.child("proto")
	if proto == nil || len(proto.children) == 0 {
		return Command{}, false
	}

	parts := proto.children
	for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1].innerText()) == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return Command{}, false
	}

	name := strings.TrimSpace(parts[len(parts)-1].innerText())
	if name == "" {
		return Command{}, false
	}

	cmd := Command{
		Name:   name,
		Result: joinTexts(parts[:len(parts)-1]),
	}

	for _, param := range c.elements() {
		if param.name != "param" {
			continue
		}
		cmd.Params = append(cmd.Params, joinTexts(param.children))
	}

	if len(cmd.Params) == 0 {
		cmd.Params = []string{"void"}
	}

	return cmd, true
}

// joinTexts joins the trimmed text of each node with single spaces.
func joinTexts(nodes []*node) string {
	var parts []string
	for _, n := range nodes {
		parts = append(parts, strings.Fields(n.innerText())...)
	}
	return strings.Join(parts, " ")
}

func (p *parser) parseFeatures(root *node) error {
	for _, f := range root.findAll("feature") {
		feat := Feature{
			API:    f.attr("api"),
			Name:   f.attr("name"),
			Number: f.attr("number"),
		}

		v, err := semver.NewVersion(feat.Number)
		if err != nil {
			if err := p.malformed("feature %q has invalid number %q", feat.Name, feat.Number); err != nil {
				return err
			}
			continue
		}
		feat.Version = v

		for _, block := range f.elements() {
			if block.name != "require" {
				continue
			}

			profile := block.attr("profile")

			for _, ref := range block.elements() {
				var kind Kind
				switch ref.name {
				case "type":
					kind = KindType
				case "enum":
					kind = KindEnum
				case "command":
					kind = KindCommand
				default:
					continue
				}

				name := ref.attr("name")
				if name == "" {
					if err := p.malformed("%s reference without name in %s", kind, feat.Name); err != nil {
						return err
					}
					continue
				}

				feat.Requires = append(feat.Requires, Reference{
					Kind:    kind,
					Name:    name,
					Profile: profile,
				})
			}
		}

		p.reg.Features = append(p.reg.Features, feat)
	}

	return nil
}
