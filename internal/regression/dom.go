package regression

import (
	"strings"

	"golang.org/x/net/html"
)

// findAll walks the node tree and collects every node the predicate accepts.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// elementsByTag returns all element nodes with one of the given tag names.
func elementsByTag(root *html.Node, tags ...string) []*html.Node {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && set[n.Data]
	})
}

// attr returns the value of the named attribute, or "" when absent.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr reports whether the named attribute is present.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// textContent returns the concatenated text beneath a node.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// visibleText returns the page text with script and style subtrees removed,
// approximating what a visitor reads.
func visibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

// metaByName returns the first <meta name=...> element with the given name.
func metaByName(root *html.Node, name string) *html.Node {
	metas := elementsByTag(root, "meta")
	for _, m := range metas {
		if strings.EqualFold(attr(m, "name"), name) {
			return m
		}
	}
	return nil
}

// styleText concatenates the contents of all <style> tags plus every inline
// style attribute on the page.
func styleText(root *html.Node) string {
	var b strings.Builder
	for _, s := range elementsByTag(root, "style") {
		b.WriteString(textContent(s))
		b.WriteString(" ")
	}
	for _, n := range findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasAttr(n, "style")
	}) {
		b.WriteString(attr(n, "style"))
		b.WriteString("; ")
	}
	return b.String()
}

// buttons returns button-like elements: <button>, <input type=button|submit>,
// and anything carrying an onclick handler.
func buttons(root *html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range elementsByTag(root, "button") {
		out = append(out, n)
	}
	for _, n := range elementsByTag(root, "input") {
		t := strings.ToLower(attr(n, "type"))
		if t == "button" || t == "submit" {
			out = append(out, n)
		}
	}
	for _, n := range findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasAttr(n, "onclick")
	}) {
		if n.Data != "button" && n.Data != "input" {
			out = append(out, n)
		}
	}
	return out
}
