package loader

import (
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// extractText returns the visible words of an HTML document joined by
// single spaces. Text under script and style elements is skipped.
func extractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var (
		words     []string
		skipDepth int
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		skipped := n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style")
		if skipped {
			skipDepth++
		}
		if skipDepth == 0 && n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if skipped {
			skipDepth--
		}
	}
	walk(root)
	return strings.Join(words, " "), nil
}
