package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// HTMLParser handles HTML files. Block elements become paragraphs and
// <br> splits a block into separate lines.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, unparseable("html", err)
	}

	doc := &document.Document{Title: titleFromName(filename)}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "head":
				return
			case "p", "li", "td", "th", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
				doc.Paragraphs = append(doc.Paragraphs, splitLines(textContent(n))...)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	return doc, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
