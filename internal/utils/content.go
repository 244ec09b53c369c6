package utils

import (
	"strings"

	"google.golang.org/genai"
)

// ExtractContentText joins the visible text parts of content. Thought parts
// are model reasoning and never reach the player.
func ExtractContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	parts := make([]string, 0, len(content.Parts))
	for _, part := range content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		parts = append(parts, part.Text)
	}
	return strings.Join(parts, "")
}
