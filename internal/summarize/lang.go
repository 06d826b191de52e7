package summarize

// DetectLanguage classifies text by script: Hebrew and Arabic ranges
// are recognized, everything else is treated as English. Script-level
// detection is all the tokenizer needs and keeps the result
// deterministic.
func DetectLanguage(text string) string {
	for _, r := range text {
		switch {
		case r >= 0x0590 && r <= 0x05FF:
			return "he"
		case r >= 0x0600 && r <= 0x06FF:
			return "ar"
		}
	}
	return "en"
}
