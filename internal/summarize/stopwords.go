package summarize

// Stop-word sets keyed by detected language. Words here carry no
// topical signal and are excluded from frequency scoring.
var stopwords = map[string]map[string]bool{
	"en": makeSet(
		"the", "and", "for", "are", "but", "not", "you", "all", "any",
		"can", "had", "has", "have", "was", "were", "will", "with",
		"this", "that", "these", "those", "from", "they", "them",
		"his", "her", "its", "our", "your", "their", "what", "which",
		"who", "whom", "been", "being", "also", "into", "than", "then",
		"when", "where", "while", "would", "could", "should", "there",
		"about", "after", "before", "because", "between", "through",
		"very", "same", "such", "more", "most", "some", "only", "over",
		"just", "does", "did", "how", "why", "out",
	),
	"he": makeSet(
		"של", "את", "על", "אל", "עם", "כל", "כי", "אם", "לא", "או",
		"גם", "רק", "אבל", "אך", "כך", "כן", "לכן", "אז", "שם", "פה",
		"זה", "זו", "הוא", "היא", "הם", "הן", "אני", "אתה", "אנחנו",
		"יש", "אין", "היה", "היתה", "להיות", "מה", "מי", "איך", "כאשר",
	),
	"ar": makeSet(
		"من", "في", "على", "إلى", "عن", "مع", "هذا", "هذه", "ذلك",
		"التي", "الذي", "كان", "كانت", "لقد", "أن", "إن", "لا", "ما",
		"هو", "هي", "هم", "كما", "لكن", "حتى", "عند", "بعد", "قبل",
	),
}

func makeSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func stopwordsFor(lang string) map[string]bool {
	if set, ok := stopwords[lang]; ok {
		return set
	}
	return stopwords["en"]
}
