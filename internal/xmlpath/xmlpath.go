// Package xmlpath is a small typed query layer over etree: find the first or
// all elements matching a path and read their text or attributes.
package xmlpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ErrEmptyDocument is returned when the input has no root element
var ErrEmptyDocument = errors.New("empty XML document")

// Document is a parsed, read-only XML tree
type Document struct {
	doc *etree.Document
}

// Parse reads an XML document from data
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrEmptyDocument
	}
	return &Document{doc: doc}, nil
}

// Root returns the document element
func (d *Document) Root() Node {
	return Node{el: d.doc.Root()}
}

// First returns the first element matching path.
// Paths use etree syntax: "/Finvoice/InvoiceDetails", "//InvoiceRow", "Value[@type]".
func (d *Document) First(path string) (Node, bool) {
	return first(&d.doc.Element, path)
}

// All returns every element matching path in document order
func (d *Document) All(path string) []Node {
	return all(&d.doc.Element, path)
}

// Text returns the trimmed text of the first element matching path.
// ok is false when the element is missing or its text is empty.
func (d *Document) Text(path string) (string, bool) {
	n, ok := d.First(path)
	if !ok {
		return "", false
	}
	text := n.Text()
	return text, text != ""
}

// Node is a single element of a Document
type Node struct {
	el *etree.Element
}

// Tag returns the element's local name
func (n Node) Tag() string {
	return n.el.Tag
}

// Text returns the element's trimmed character data
func (n Node) Text() string {
	return strings.TrimSpace(n.el.Text())
}

// Attr returns the value of the named attribute
func (n Node) Attr(name string) (string, bool) {
	a := n.el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// First returns the first descendant matching a path relative to n
func (n Node) First(path string) (Node, bool) {
	return first(n.el, path)
}

// All returns the descendants matching a path relative to n
func (n Node) All(path string) []Node {
	return all(n.el, path)
}

// ChildText returns the trimmed text of the first descendant matching path
func (n Node) ChildText(path string) (string, bool) {
	c, ok := n.First(path)
	if !ok {
		return "", false
	}
	text := c.Text()
	return text, text != ""
}

// Children returns the direct child elements
func (n Node) Children() []Node {
	children := n.el.ChildElements()
	nodes := make([]Node, 0, len(children))
	for _, c := range children {
		nodes = append(nodes, Node{el: c})
	}
	return nodes
}

func first(el *etree.Element, path string) (Node, bool) {
	found := el.FindElement(path)
	if found == nil {
		return Node{}, false
	}
	return Node{el: found}, true
}

func all(el *etree.Element, path string) []Node {
	found := el.FindElements(path)
	nodes := make([]Node, 0, len(found))
	for _, f := range found {
		nodes = append(nodes, Node{el: f})
	}
	return nodes
}
