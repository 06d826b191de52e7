// Package summarize implements frequency-based extractive
// summarization. No randomness anywhere: identical input always yields
// the identical summary.
package summarize

import (
	"sort"
	"strings"
	"unicode"
)

// Summarizer selects the highest-signal sentences from a body of text.
type Summarizer struct {
	topN int
}

// New creates a Summarizer keeping at most topN sentences.
func New(topN int) *Summarizer {
	if topN < 1 {
		topN = 3
	}
	return &Summarizer{topN: topN}
}

// Summarize produces an extractive summary of at most maxLength
// characters. Sentences are scored by the summed frequency of their
// non-stop-words normalized by token count; the top-N are emitted in
// their original order, the last one truncated if it overruns.
func (s *Summarizer) Summarize(body string, maxLength int) string {
	body = strings.TrimSpace(body)
	if body == "" || maxLength <= 0 {
		return ""
	}

	sentences := splitSentences(body)
	if len(sentences) == 0 {
		return truncate(body, maxLength)
	}

	selected := sentences
	if len(sentences) > s.topN {
		selected = s.pickTop(sentences, stopwordsFor(DetectLanguage(body)))
	}

	return assemble(selected, maxLength)
}

// pickTop scores every sentence and returns the topN in original order.
func (s *Summarizer) pickTop(sentences []string, stop map[string]bool) []string {
	freq := make(map[string]int)
	tokenized := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens := tokenize(sent)
		tokenized[i] = tokens
		for _, tok := range tokens {
			if !stop[tok] {
				freq[tok]++
			}
		}
	}

	scores := make([]float64, len(sentences))
	for i, tokens := range tokenized {
		if len(tokens) == 0 {
			continue
		}
		sum := 0
		for _, tok := range tokens {
			sum += freq[tok] // stop-words are absent from freq and add 0
		}
		scores[i] = float64(sum) / float64(len(tokens))
	}

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	top := order[:s.topN]
	sort.Ints(top)

	picked := make([]string, len(top))
	for i, idx := range top {
		picked[i] = sentences[idx]
	}
	return picked
}

// assemble joins the selected sentences, truncating the last one if
// the result overruns maxLength.
func assemble(sentences []string, maxLength int) string {
	joined := strings.Join(sentences, " ")
	return truncate(joined, maxLength)
}

// splitSentences breaks text into sentences on .!? runs, keeping the
// terminator with its sentence. Sentence-final punctuation is the same
// across the supported scripts.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Consume the full terminator run ("?!", "...").
		for i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
			i++
			current.WriteRune(runes[i])
		}
		if sent := strings.TrimSpace(current.String()); sent != "" {
			sentences = append(sentences, sent)
		}
		current.Reset()
	}
	if sent := strings.TrimSpace(current.String()); sent != "" {
		sentences = append(sentences, sent)
	}
	return sentences
}

// tokenize lower-cases and splits on anything that is not a letter or
// digit, dropping tokens shorter than three runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
