package extractor

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Meta title XPath expressions, most specific first.
var metaTitleXPaths = []string{
	`//meta[@property='og:title']`,
	`//meta[@name='twitter:title']`,
	`//meta[@name='title']`,
}

// extractMetaTitle pulls a page title out of OpenGraph/Twitter meta
// tags, used when no heading selector matches.
func extractMetaTitle(root *html.Node) string {
	for _, xp := range metaTitleXPaths {
		node, err := htmlquery.Query(root, xp)
		if err != nil || node == nil {
			continue
		}
		if content := strings.TrimSpace(htmlquery.SelectAttr(node, "content")); content != "" {
			return content
		}
	}
	return ""
}
