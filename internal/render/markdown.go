// Package render turns drafted documents and analysis results into HTML,
// Markdown reports and PDF files.
package render

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions | blackfriday.NoEmptyLineBeforeBlock

// ToHTML renders Markdown to HTML. Raw HTML in the source is escaped.
func ToHTML(markdown string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
	})
	return string(blackfriday.Run([]byte(markdown),
		blackfriday.WithExtensions(extensions),
		blackfriday.WithRenderer(renderer),
	))
}

func parse(markdown string) *blackfriday.Node {
	return blackfriday.New(blackfriday.WithExtensions(extensions)).Parse([]byte(markdown))
}

// Title returns the text of the first level-1 heading, or fallback
func Title(markdown, fallback string) string {
	var title string
	parse(markdown).Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering || node.Type != blackfriday.Heading || node.HeadingData.Level != 1 {
			return blackfriday.GoToNext
		}
		title = strings.TrimSpace(inlineText(node))
		if title == "" {
			return blackfriday.GoToNext
		}
		return blackfriday.Terminate
	})
	if title == "" {
		return fallback
	}
	return title
}

// inlineText concatenates the literal text beneath node
func inlineText(node *blackfriday.Node) string {
	var sb strings.Builder
	node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering {
			return blackfriday.GoToNext
		}
		switch n.Type {
		case blackfriday.Text, blackfriday.Code:
			sb.Write(n.Literal)
		case blackfriday.Softbreak, blackfriday.Hardbreak:
			sb.WriteByte(' ')
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}
