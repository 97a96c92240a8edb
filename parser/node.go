package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is a minimal DOM element. Character data is stored as a child with an
// empty name so mixed content keeps its order.
type node struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*node
}

// decode builds a node tree from r. Comments, processing instructions and
// directives are dropped. Whitespace between elements is kept since it
// separates tokens in type declarations.
func decode(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)

	root := &node{}
	stack := []*node{root}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding registry: %w", err)
		}

		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Copy().Attr}
			top.children = append(top.children, n)
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			top.children = append(top.children, &node{text: string(t)})
		}
	}

	return root, nil
}

func (n *node) isElement() bool {
	return n.name != ""
}

func (n *node) attr(key string) string {
	v, _ := n.lookupAttr(key)
	return v
}

func (n *node) lookupAttr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == key {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) elements() []*node {
	var out []*node
	for _, c := range n.children {
		if c.isElement() {
			out = append(out, c)
		}
	}
	return out
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// find returns the first descendant element with the given name.
func (n *node) find(name string) *node {
	for _, c := range n.children {
		if !c.isElement() {
			continue
		}
		if c.name == name {
			return c
		}
		if d := c.find(name); d != nil {
			return d
		}
	}
	return nil
}

// findAll returns every descendant element with the given name in document
// order. Matches are not searched further.
func (n *node) findAll(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if !c.isElement() {
			continue
		}
		if c.name == name {
			out = append(out, c)
			continue
		}
		out = append(out, c.findAll(name)...)
	}
	return out
}

func (n *node) innerText() string {
	if !n.isElement() {
		return n.text
	}

	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.innerText())
	}
	return b.String()
}
