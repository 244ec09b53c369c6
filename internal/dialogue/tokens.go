package dialogue

import (
	"math"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/easeaico/crystal-sanctuary/internal/utils"
)

const (
	messageOverhead = 4
	replyPriming    = 2
)

// countTokens approximates the token count of text: a quarter token per
// character plus half a token per punctuation mark.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	chars := utf8.RuneCountInString(text)
	punct := 0
	for _, r := range text {
		if strings.ContainsRune(`.,!?;:'"`, r) {
			punct++
		}
	}
	return int(math.Ceil(float64(chars)/4 + float64(punct)*0.5))
}

func estimateRequestTokens(contents []*genai.Content) int {
	total := replyPriming
	for _, c := range contents {
		total += messageOverhead + countTokens(utils.ExtractContentText(c))
	}
	return total
}
