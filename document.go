package widget

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the DOM of a host page. It is safe for concurrent use; the
// loader is the only writer.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// ParseDocument parses an HTML host page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %v", err)
	}
	return &Document{
		root: root,
	}, nil
}

// NewDocument parses the given HTML source.
func NewDocument(src string) (*Document, error) {
	return ParseDocument(strings.NewReader(src))
}

// ElementByID returns the first element with the given id.
func (d *Document) ElementByID(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := d.elementByID(id)
	if n == nil {
		return nil, false
	}
	return &Element{doc: d, node: n}, true
}

// Count returns the number of elements with the given tag name.
func (d *Document) Count(tag string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			count++
		}
	})
	return count
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func (d *Document) elementByID(id string) *html.Node {
	return findElement(d.root, func(n *html.Node) bool {
		return getAttr(n, "id") == id
	})
}

// appendElement creates an element with the given attributes and appends it
// as the last child of parent.
func (d *Document) appendElement(parent *Element, a atom.Atom, attrs []html.Attribute) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
	parent.node.AppendChild(n)
	return &Element{doc: d, node: n}
}

// Element is a handle to an element of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

func (e *Element) Tag() string {
	return e.node.Data
}

func (e *Element) Attr(key string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return getAttr(e.node, key)
}

// Style returns the value of the given property in the inline style.
func (e *Element) Style(prop string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	v, _ := styleValue(getAttr(e.node, "style"), prop)
	return v
}

// Children returns the child elements.
func (e *Element) Children() []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	var children []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, &Element{doc: e.doc, node: c})
		}
	}
	return children
}

func (e *Element) setStyle(prop string, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	style := setStyleValue(getAttr(e.node, "style"), prop, value)
	for i, a := range e.node.Attr {
		if a.Key == "style" {
			e.node.Attr[i].Val = style
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: "style", Val: style})
}

func findElement(root *html.Node, match func(n *html.Node) bool) *html.Node {
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findElement(c, match); n != nil {
			return n
		}
	}
	return nil
}

func walk(n *html.Node, fn func(n *html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
