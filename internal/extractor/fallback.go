package extractor

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Tags whose text content is never article body.
var skipContent = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"head":     true,
}

// htmlToText is the permissive fallback pass: stream the tokens,
// drop markup and script/style payloads, keep whatever text remains.
// It never fails; malformed input just yields whatever text the
// tokenizer can see.
func htmlToText(rawHTML []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(rawHTML))

	var sb strings.Builder
	var skipDepth int

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skipContent[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skipContent[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
}
