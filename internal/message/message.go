// Package message formats outbound delivery messages.
package message

import (
	"fmt"
	"strings"
)

// DefaultContentLimit is the character budget for a single-article body.
const DefaultContentLimit = 2600

// FormatDigest joins translated titles into one numbered digest message,
// 1-indexed and separated by a full-width semicolon. Blank titles are
// skipped; an all-blank batch yields "".
func FormatDigest(translatedTitles []string) string {
	var parts []string
	for _, title := range translatedTitles {
		cleaned := strings.TrimSpace(title)
		if cleaned == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d. %s", len(parts)+1, cleaned))
	}
	return strings.Join(parts, "；")
}

// FormatSingleArticle renders a title-plus-body message for single-article
// mode. The body is truncated to contentLimit characters with an ellipsis
// marker; an empty body yields the bare title.
func FormatSingleArticle(translatedTitle, translatedContent string, contentLimit int) string {
	title := strings.TrimSpace(translatedTitle)
	body := truncate(strings.TrimSpace(translatedContent), contentLimit)
	if body == "" {
		return title
	}
	return fmt.Sprintf("标题：%s\n\n内容：%s", title, body)
}

func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	// Limits below the marker length keep only the marker itself.
	keep := maxChars - 3
	if keep < 0 {
		keep = 0
	}
	cut := strings.TrimRight(string(runes[:keep]), " \t\n")
	return cut + "..."
}
