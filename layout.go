package widget

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// LineHeight is the height of a block of text.
	LineHeight = 24
	// ControlHeight is the height of a single line form control.
	ControlHeight = 40
	// TextareaHeight is the height of a multi-line form control.
	TextareaHeight = 96
)

// MeasureHeight estimates the scroll height in pixels of the subtree rooted
// at n. It is an approximation of block layout without a rendering engine:
//
//   - an explicit height (a data-height attribute, or height:Npx in the inline
//     style) is taken as is
//   - hidden subtrees (hidden attribute, display:none) are zero
//   - form controls and blocks of text have fixed heights
//   - other elements are the sum of their children
func MeasureHeight(n *html.Node) int {
	switch n.Type {
	case html.DocumentNode:
		return measureChildren(n)
	case html.ElementNode:
	default:
		return 0
	}

	if isHidden(n) {
		return 0
	}
	if h, ok := explicitHeight(n); ok {
		return h
	}

	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Meta, atom.Link, atom.Title:
		return 0
	case atom.Input:
		if strings.EqualFold(getAttr(n, "type"), "hidden") {
			return 0
		}
		return ControlHeight
	case atom.Select, atom.Button:
		return ControlHeight
	case atom.Textarea:
		return TextareaHeight
	case atom.Br:
		return LineHeight
	}

	children := measureChildren(n)
	if children == 0 && hasText(n) {
		return LineHeight
	}
	return children
}

func measureChildren(n *html.Node) int {
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += MeasureHeight(c)
	}
	return total
}

func hasText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return true
		}
		if c.Type == html.ElementNode && !isHidden(c) && hasText(c) {
			return true
		}
	}
	return false
}

func isHidden(n *html.Node) bool {
	if hasAttr(n, "hidden") {
		return true
	}
	v, ok := styleValue(getAttr(n, "style"), "display")
	return ok && v == "none"
}

func explicitHeight(n *html.Node) (int, bool) {
	if v := getAttr(n, "data-height"); v != "" {
		if h, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && h >= 0 {
			return h, true
		}
	}
	if v, ok := styleValue(getAttr(n, "style"), "height"); ok && strings.HasSuffix(v, "px") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
		if err == nil && f >= 0 {
			return int(f), true
		}
	}
	return 0, false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
