package social

import (
	"strings"
	"unicode"

	"riskscan/internal/domain/entity"
)

var (
	negativeWords = wordSet(
		"scam", "fraud", "lawsuit", "sued", "fine", "fined", "probe", "recall", "unsafe", "dangerous",
		"crash", "crashed", "lie", "lied", "lying", "boycott", "terrible", "awful", "worst", "angry",
		"breach", "leak", "leaked", "hacked", "scandal", "corrupt", "layoffs", "fired", "investigation",
	)
	positiveWords = wordSet(
		"great", "love", "amazing", "excellent", "impressive", "safe", "best", "good", "happy",
		"innovative", "reliable", "congrats", "congratulations", "win", "wins", "thanks", "awesome",
	)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Classify scores text against a small lexicon. More negative than positive
// hits is negative, the reverse is positive, anything else neutral.
func Classify(text string) entity.Sentiment {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	score := 0
	for _, w := range words {
		if _, ok := negativeWords[w]; ok {
			score--
		}
		if _, ok := positiveWords[w]; ok {
			score++
		}
	}
	switch {
	case score < 0:
		return entity.SentimentNegative
	case score > 0:
		return entity.SentimentPositive
	default:
		return entity.SentimentNeutral
	}
}
