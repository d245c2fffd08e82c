// Package resolve turns raw message content, sticker attachments, and
// reaction events into canonical occurrences for the counter store. It
// holds the identity rules: which token identifies a custom emoji, which
// code points count as a pictograph, and which actors are excluded.
package resolve

import (
	"fmt"
	"regexp"

	"github.com/emojistatsbot/emojistats/internal/core/models"
)

// Custom Discord emoji embedded in text: <:name:id> or <a:name:id>. The
// full token is the item key, so the animated and static forms of the
// same id are distinct items.
var customEmoji = regexp.MustCompile(`<a?:\w+:\d+>`)

// PictographRanges is the policy table of code-point ranges treated as
// standard emoji in message text. It deliberately mirrors the historical
// behavior of the bot rather than the full Unicode emoji definition:
// skin-tone modifiers, flags, and ZWJ sequences are not specially
// handled.
var PictographRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // Misc Symbols and Pictographs
	{0x1F600, 0x1F64F}, // Emoticons
	{0x1F680, 0x1F6FF}, // Transport and Map Symbols
	{0x2600, 0x26FF},   // Misc Symbols
	{0x2700, 0x27BF},   // Dingbats
	{0xFE00, 0xFE0F},   // Variation Selectors
	{0x1FA70, 0x1FAFF}, // Symbols and Pictographs Extended-A
}

func isPictograph(r rune) bool {
	for _, rng := range PictographRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// ScanMessage finds every emoji in a message's content. Each distinct
// custom-emoji token and each distinct pictograph rune yields exactly
// one occurrence, however many times it repeats within the message.
func ScanMessage(content string) []models.Occurrence {
	var occs []models.Occurrence

	seenTokens := map[string]bool{}
	for _, token := range customEmoji.FindAllString(content, -1) {
		if seenTokens[token] {
			continue
		}
		seenTokens[token] = true
		occs = append(occs, models.Occurrence{
			Category: models.CategoryEmoji,
			Key:      token,
			Name:     token,
		})
	}

	seenRunes := map[rune]bool{}
	for _, r := range content {
		if !isPictograph(r) || seenRunes[r] {
			continue
		}
		seenRunes[r] = true
		occs = append(occs, models.Occurrence{
			Category: models.CategoryEmoji,
			Key:      string(r),
			Name:     string(r),
		})
	}

	return occs
}

// A StickerItem is a sticker attached to a message.
type StickerItem struct {
	ID   string
	Name string
}

// Stickers resolves a message's sticker attachments, one occurrence per
// distinct sticker id. The id is the stable key; the name travels along
// so the store can refresh it.
func Stickers(items []StickerItem) []models.Occurrence {
	var occs []models.Occurrence
	seen := map[string]bool{}
	for _, s := range items {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		occs = append(occs, models.Occurrence{
			Category: models.CategorySticker,
			Key:      s.ID,
			Name:     s.Name,
		})
	}
	return occs
}

// A ReactionEvent is one reaction-add, flattened to what identity
// resolution needs.
type ReactionEvent struct {
	ActorID       string
	ActorIsBot    bool
	MessageAuthor string
	EmojiName     string
	EmojiID       string // empty for standard emoji
	Animated      bool
}

// Reaction resolves a reaction-add to an occurrence. Self-reactions and
// bot actors are excluded entirely: ok is false and nothing should be
// counted. Custom emoji reactions key on the synthesized token, standard
// ones on the emoji character itself.
func Reaction(ev ReactionEvent) (models.Occurrence, bool) {
	if ev.ActorIsBot {
		return models.Occurrence{}, false
	}
	if ev.MessageAuthor != "" && ev.ActorID == ev.MessageAuthor {
		return models.Occurrence{}, false
	}
	if ev.EmojiName == "" {
		return models.Occurrence{}, false
	}

	key := ev.EmojiName
	if ev.EmojiID != "" {
		flag := ""
		if ev.Animated {
			flag = "a"
		}
		key = fmt.Sprintf("<%s:%s:%s>", flag, ev.EmojiName, ev.EmojiID)
	}

	return models.Occurrence{
		Category: models.CategoryReaction,
		Key:      key,
		Name:     key,
	}, true
}
