// Package extractor turns raw HTML into (title, body) text. A
// DOM-based primary pass drives selector heuristics; a permissive
// streaming fallback strips tags when the primary finds nothing.
package extractor

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/summarize"
	"github.com/IshaanNene/StashGoat/internal/types"
)

// Selector lists mirror common article markup, tried in order.
var (
	titleSelectors = []string{
		"h1.entry-title", "h1.post-title", "h1.article-title",
		".headline", "h1",
	}
	contentSelectors = []string{
		"article", ".entry-content", ".post-content", ".article-content",
		".content", ".article-body", "main", ".post-body", ".story-body",
	}
)

// boilerplate is stripped before any text extraction.
const boilerplateSelector = "script, style, nav, header, footer, aside, iframe, noscript"

var whitespaceRE = regexp.MustCompile(`\s+`)

// Extractor extracts article text from raw HTML.
type Extractor struct {
	cfg    *config.ExtractorConfig
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg *config.ExtractorConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger.With("component", "extractor"),
	}
}

// Extract derives title and body text from raw HTML. The body is
// capped at MaxTextLength; overlong input truncates, never fails.
// types.ErrExtractionEmpty is returned only when both the primary and
// the fallback pass produce no text at all. An empty title is not an
// error.
func (e *Extractor) Extract(rawHTML []byte) (*types.ExtractedContent, error) {
	var title, body string

	root, err := html.Parse(bytes.NewReader(rawHTML))
	if err == nil {
		title, body = e.extractDOM(root)
	} else {
		e.logger.Warn("primary parse failed, using fallback", "error", err)
	}

	if body == "" {
		body = htmlToText(rawHTML)
	}

	title = collapseSpace(title)
	body = collapseSpace(body)

	if body == "" {
		return nil, &types.ExtractError{Err: types.ErrExtractionEmpty}
	}

	title = truncateRunes(title, e.cfg.MaxTitleLength)
	body = truncateRunes(body, e.cfg.MaxTextLength)

	sample := title + " " + truncateRunes(body, 500)
	return &types.ExtractedContent{
		Title:     title,
		Body:      body,
		Language:  summarize.DetectLanguage(sample),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// extractDOM runs the selector-driven primary pass over a parsed tree.
func (e *Extractor) extractDOM(root *html.Node) (title, body string) {
	// Metadata first: og:title and friends live in <head>, which the
	// boilerplate strip below leaves alone, but order keeps this
	// independent of the selector pass.
	metaTitle := extractMetaTitle(root)

	doc := goquery.NewDocumentFromNode(root)
	doc.Find(boilerplateSelector).Remove()

	title = e.findTitle(doc, metaTitle)
	body = e.findBody(doc)
	return title, body
}

func (e *Extractor) findTitle(doc *goquery.Document, metaTitle string) string {
	for _, sel := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if metaTitle != "" {
		return metaTitle
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// findBody tries the content selectors in order, then all paragraphs,
// then the largest text block.
func (e *Extractor) findBody(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		node.Find("nav, header, footer, aside, .advertisement, .ad, .social-share").Remove()
		if text := strings.TrimSpace(node.Text()); len(text) >= e.cfg.MinBodyLength {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})
	if joined := strings.Join(paragraphs, "\n\n"); len(joined) >= e.cfg.MinBodyLength {
		return joined
	}

	return e.largestBlock(doc)
}

// largestBlock returns the text of the div or section with the most
// direct text, a last heuristic before giving up on the DOM pass.
func (e *Extractor) largestBlock(doc *goquery.Document) string {
	var best string
	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); len(text) > len(best) {
			best = text
		}
	})
	if len(best) >= e.cfg.MinBodyLength {
		return best
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
