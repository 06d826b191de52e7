// Package categorize assigns saved articles to a fixed category set by
// keyword matching. Pure functions, no state.
package categorize

import (
	"strings"
)

// Category is an article classification.
type Category string

const (
	Technology    Category = "technology"
	Health        Category = "health"
	Economy       Category = "economy"
	Politics      Category = "politics"
	Inspiration   Category = "inspiration"
	Uncategorized Category = "uncategorized"
)

// AllCategories returns the valid categories in priority order; the
// order breaks score ties.
func AllCategories() []Category {
	return []Category{Technology, Health, Economy, Politics, Inspiration}
}

var categoryKeywords = map[Category][]string{
	Technology: {
		"technology", "software", "hardware", "app", "smartphone", "computer",
		"internet", "cyber", "ai", "artificial intelligence", "machine learning",
		"blockchain", "crypto", "startup tech", "programming", "robot",
		"טכנולוגיה", "אפליקציה", "סמארטפון", "מחשב", "אינטרנט", "סייבר", "בינה מלאכותית",
	},
	Health: {
		"health", "medicine", "medical", "treatment", "nutrition", "diet",
		"fitness", "sport", "exercise", "psychology", "therapy", "disease",
		"בריאות", "רפואה", "מחקר", "טיפול", "תזונה", "ספורט", "כושר", "פסיכולוגיה",
	},
	Economy: {
		"economy", "economic", "finance", "financial", "investment", "stock",
		"market", "business", "company", "startup", "shares", "trading",
		"כלכלה", "כספים", "השקעות", "בורסה", "עסקים", "חברה", "סטארטאפ", "מניות",
	},
	Politics: {
		"politics", "political", "government", "parliament", "election",
		"policy", "minister", "law", "legislation", "senate", "congress",
		"פוליטיקה", "ממשלה", "כנסת", "בחירות", "מדינה", "חוק", "מדיניות",
	},
	Inspiration: {
		"inspiration", "motivation", "personality", "success", "dreams",
		"goals", "self improvement", "mindfulness", "leadership",
		"השראה", "מוטיבציה", "אישיות", "הצלחה", "חלומות", "מטרות", "פיתוח אישי",
	},
}

// Categorize picks the category with the most keyword matches over the
// lower-cased title and body. Ties go to the earlier category in
// AllCategories; no match at all yields Uncategorized.
func Categorize(title, body string) Category {
	text := strings.ToLower(title + " " + body)

	best := Uncategorized
	bestScore := 0
	for _, cat := range AllCategories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			score += countMatches(text, kw)
		}
		if score > bestScore {
			bestScore = score
			best = cat
		}
	}
	return best
}

// countMatches counts non-overlapping occurrences of a keyword,
// requiring word boundaries for single-word ASCII keywords so "ai"
// does not match inside "maintain".
func countMatches(text, keyword string) int {
	count := 0
	for idx := 0; ; {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			break
		}
		pos := idx + i
		if hasWordBoundary(text, pos, len(keyword)) {
			count++
		}
		idx = pos + len(keyword)
	}
	return count
}

func hasWordBoundary(text string, pos, length int) bool {
	if pos > 0 && isWordByte(text[pos-1]) {
		return false
	}
	end := pos + length
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

// isWordByte is ASCII-only on purpose: Hebrew keywords are multi-byte
// and their surrounding bytes never look like ASCII word characters.
func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
