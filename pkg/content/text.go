package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// VisibleText returns the text of every node in sel, skipping <script> and
// <style> subtrees. Each text node is trimmed, empty ones are dropped, and the
// rest are joined with newlines.
func VisibleText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		parts = collectText(n, parts)
	}
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, parts []string) []string {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			parts = append(parts, text)
		}
		return parts
	case html.ElementNode:
		switch strings.ToLower(n.Data) {
		case "script", "style":
			return parts
		case "noscript":
			return collectNoscript(n, parts)
		}
	case html.CommentNode, html.DoctypeNode:
		return parts
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = collectText(c, parts)
	}
	return parts
}

// collectNoscript walks a <noscript> element. With scripting enabled the
// parser keeps its content as one raw text node, so that text is parsed again
// as a fragment and only the resulting text nodes are kept.
func collectNoscript(n *html.Node, parts []string) []string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			parts = collectText(c, parts)
			continue
		}
		nodes, err := html.ParseFragment(strings.NewReader(c.Data), &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
		})
		if err != nil {
			continue
		}
		for _, fn := range nodes {
			parts = collectText(fn, parts)
		}
	}
	return parts
}
