package utils

import (
	"fmt"
	"strings"
)

// CleanReply normalizes a generated companion line: it drops a leading
// "Speaker:" label, surrounding quotes and surplus whitespace.
func CleanReply(raw, speaker string) (string, error) {
	clean := strings.TrimSpace(raw)
	if speaker != "" {
		for _, prefix := range []string{speaker + ":", "**" + speaker + "**:", "**" + speaker + ":**"} {
			if len(clean) >= len(prefix) && strings.EqualFold(clean[:len(prefix)], prefix) {
				clean = strings.TrimSpace(clean[len(prefix):])
				break
			}
		}
	}
	clean = strings.Trim(clean, "\"“”")
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return "", fmt.Errorf("missing reply")
	}
	return clean, nil
}

// TruncateWords keeps at most max whitespace-separated words.
func TruncateWords(text string, max int) string {
	words := strings.Fields(text)
	if max <= 0 || len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ")
}
