package service

import "strings"

const (
	// DefaultConversationTitle is used when the first message has no words
	DefaultConversationTitle = "New Conversation"

	titleWordLimit = 4
	titleRuneLimit = 30
	titleEllipsis  = "..."
)

// DeriveTitle builds a conversation title from its first message: the first
// four words, capped at 30 characters. Only the character cap adds an
// ellipsis; dropping trailing words does not.
func DeriveTitle(message string) string {
	words := strings.Fields(message)
	if len(words) == 0 {
		return DefaultConversationTitle
	}

	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	title := []rune(strings.Join(words, " "))
	if len(title) > titleRuneLimit {
		return strings.TrimRight(string(title[:titleRuneLimit]), " ") + titleEllipsis
	}
	return string(title)
}
