package llm

import (
	"strings"
)

// WordWrap wraps text at the specified width.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLineLength := 0
		for j, word := range words {
			if j > 0 {
				if currentLineLength+len(word)+1 > width {
					result.WriteString("\n")
					currentLineLength = 0
				} else {
					result.WriteString(" ")
					currentLineLength++
				}
			}
			result.WriteString(word)
			currentLineLength += len(word)
		}
	}

	return result.String()
}

// TruncateBlock truncates lines between the content markers to maxLen and
// removes empty lines within that block. This is primarily used for logging
// prompts that embed large episode transcripts or page text.
func TruncateBlock(text string, maxLen int) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	var result []string
	inBlock := false

	for _, line := range lines {
		lowerLine := strings.ToLower(line)
		if strings.Contains(lowerLine, "<start of content>") {
			inBlock = true
			result = append(result, line)
			continue
		}
		if strings.Contains(lowerLine, "<end of content>") {
			inBlock = false
			result = append(result, line)
			continue
		}

		if inBlock {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue // Skip empty lines inside the block
			}
			runes := []rune(trimmed)
			if len(runes) > maxLen {
				result = append(result, string(runes[:maxLen])+"...")
			} else {
				result = append(result, trimmed)
			}
		} else {
			// Outside the block: preserve line exactly as is
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
