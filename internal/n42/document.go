// Package n42 parses N42 measurement reports into a generic, namespace-aware element tree.
package n42

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// QName is a namespace-qualified element name (namespace URI + local name).
type QName struct {
	Space string
	Local string
}

// N builds a QName.
func N(space, local string) QName {
	return QName{Space: space, Local: local}
}

func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Node is a single element of a parsed document. Nodes are never mutated after Parse returns.
type Node struct {
	Name     QName
	Attrs    []xml.Attr
	Text     string // character data placed directly inside the element
	Children []*Node
}

var ErrEmptyDocument = errors.New("document has no root element")

// Parse reads a whole document from r and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: QName{Space: t.Name.Space, Local: t.Name.Local}, Attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xml: unexpected second root element %s", n.Name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("xml: character data outside root element")
			}
		}
	}
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(b []byte) (*Node, error) {
	return Parse(bytes.NewReader(b))
}

// FindFirst returns the first descendant of n, in document order, for which match
// returns true. n itself is never considered. Returns nil when nothing matches.
func (n *Node) FindFirst(match func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if match(c) {
			return c
		}
		if found := c.FindFirst(match); found != nil {
			return found
		}
	}
	return nil
}

// Find returns the first descendant named name.
func (n *Node) Find(name QName) *Node {
	return n.FindFirst(Named(name))
}

// InnerText concatenates the character data of n and all of its descendants.
func (n *Node) InnerText() string {
	if n == nil {
		return ""
	}
	if len(n.Children) == 0 {
		return n.Text
	}
	var sb strings.Builder
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		sb.WriteString(c.InnerText())
	}
	return sb.String()
}

// Named matches elements by qualified name.
func Named(name QName) func(*Node) bool {
	return func(n *Node) bool { return n.Name == name }
}

// WithChildText matches elements named name that have a direct child named child
// whose full text equals text exactly.
func WithChildText(name, child QName, text string) func(*Node) bool {
	return func(n *Node) bool {
		if n.Name != name {
			return false
		}
		for _, c := range n.Children {
			if c.Name == child && c.InnerText() == text {
				return true
			}
		}
		return false
	}
}
