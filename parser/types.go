package parser

import (
	"github.com/Masterminds/semver/v3"
)

// Kind identifies which registry collection a feature reference points into.
type Kind int

const (
	KindType Kind = iota
	KindEnum
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindEnum:
		return "enum"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

type Type struct {
	Name     string
	Decl     string
	API      string
	Requires string
}

// Command is a registry command. Params always holds at least one entry;
// parameterless commands carry the single parameter "void".
type Command struct {
	Name   string
	Result string
	Params []string
}

type Reference struct {
	Kind    Kind
	Name    string
	Profile string
}

// Feature is one API version entry. Requires lists the references of every
// <require> block in document order.
type Feature struct {
	API      string
	Name     string
	Number   string
	Version  *semver.Version
	Requires []Reference
}

type Registry struct {
	Types    []Type
	Enums    map[string]string
	Commands map[string]Command
	Features []Feature

	// Handle is the single unnamed, non-include type declaration (GLhandleARB
	// in gl.xml), or empty.
	Handle string

	// Warnings counts the nodes dropped while parsing leniently.
	Warnings int

	typeIndex map[string]int
}

// Type looks up a type declaration by name.
func (r *Registry) Type(name string) (Type, bool) {
	i, ok := r.typeIndex[name]
	if !ok {
		return Type{}, false
	}
	return r.Types[i], true
}
