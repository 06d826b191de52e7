package categorize

import (
	"testing"
)

func TestCategorizeByKeywordCount(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  Category
	}{
		{
			name:  "technology",
			title: "New smartphone released",
			body:  "The computer industry ships another smartphone with AI features and better software.",
			want:  Technology,
		},
		{
			name:  "health",
			title: "Nutrition study",
			body:  "A medical study links nutrition and fitness to better health outcomes after treatment.",
			want:  Health,
		},
		{
			name:  "economy beats single tech mention",
			title: "Startup raises funding",
			body:  "The startup closed an investment round as the stock market rallied; business confidence grew while one app launched.",
			want:  Economy,
		},
		{
			name:  "no keywords",
			title: "A walk in the park",
			body:  "The trees were green and the ducks swam in the pond.",
			want:  Uncategorized,
		},
		{
			name:  "hebrew keywords",
			title: "חדשות",
			body:  "הממשלה הציגה מדיניות חדשה לקראת בחירות.",
			want:  Politics,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.title, tt.body); got != tt.want {
				t.Errorf("Categorize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategorizeTieBreaksByPriority(t *testing.T) {
	// One technology keyword and one health keyword: priority order wins.
	got := Categorize("Software and medicine", "")
	if got != Technology {
		t.Errorf("expected Technology on tie, got %q", got)
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	title := "Investment in medical AI startups"
	body := "Finance and health meet as companies fund machine learning for treatment."

	first := Categorize(title, body)
	for i := 0; i < 20; i++ {
		if got := Categorize(title, body); got != first {
			t.Fatalf("category changed between calls: %q vs %q", first, got)
		}
	}
}

func TestCategorizeWordBoundaries(t *testing.T) {
	// "ai" must not match inside other words.
	got := Categorize("Maintain the domain", "The captain waited in the rain.")
	if got != Uncategorized {
		t.Errorf("expected Uncategorized, got %q", got)
	}
}
