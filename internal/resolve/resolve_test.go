package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emojistatsbot/emojistats/internal/core/models"
)

func emoji(key string) models.Occurrence {
	return models.Occurrence{Category: models.CategoryEmoji, Key: key, Name: key}
}

func TestScanMessage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Occurrence
	}{
		{
			name:    "custom and repeated unicode",
			content: "Hello <a:wave:123456789012345678> 😀😀 world",
			want: []models.Occurrence{
				emoji("<a:wave:123456789012345678>"),
				emoji("😀"),
			},
		},
		{
			name:    "repeated custom token counted once",
			content: "<:pog:111> and again <:pog:111>",
			want: []models.Occurrence{
				emoji("<:pog:111>"),
			},
		},
		{
			name:    "animated and static forms are distinct",
			content: "<a:pog:111> <:pog:111>",
			want: []models.Occurrence{
				emoji("<a:pog:111>"),
				emoji("<:pog:111>"),
			},
		},
		{
			name:    "multiple distinct unicode",
			content: "🚀 to the ☀ and back 🚀",
			want: []models.Occurrence{
				emoji("🚀"),
				emoji("☀"),
			},
		},
		{
			name:    "plain text",
			content: "no emoji here, just words",
			want:    nil,
		},
		{
			name:    "malformed custom token ignored",
			content: "<wave:123> <a:wave> <:wave:abc>",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanMessage(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ScanMessage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStickers(t *testing.T) {
	got := Stickers([]StickerItem{
		{ID: "999", Name: "Blob"},
		{ID: "999", Name: "Blob"},
		{ID: "1000", Name: "OtherBlob"},
		{ID: "", Name: "NoID"},
	})

	want := []models.Occurrence{
		{Category: models.CategorySticker, Key: "999", Name: "Blob"},
		{Category: models.CategorySticker, Key: "1000", Name: "OtherBlob"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stickers() mismatch (-want +got):\n%s", diff)
	}
}

func TestReaction(t *testing.T) {
	tests := []struct {
		name    string
		ev      ReactionEvent
		want    models.Occurrence
		wantOK  bool
	}{
		{
			name: "custom animated",
			ev:   ReactionEvent{ActorID: "u2", MessageAuthor: "u1", EmojiName: "wave", EmojiID: "123", Animated: true},
			want: models.Occurrence{
				Category: models.CategoryReaction,
				Key:      "<a:wave:123>",
				Name:     "<a:wave:123>",
			},
			wantOK: true,
		},
		{
			name: "custom static",
			ev:   ReactionEvent{ActorID: "u2", MessageAuthor: "u1", EmojiName: "wave", EmojiID: "123"},
			want: models.Occurrence{
				Category: models.CategoryReaction,
				Key:      "<:wave:123>",
				Name:     "<:wave:123>",
			},
			wantOK: true,
		},
		{
			name: "standard emoji",
			ev:   ReactionEvent{ActorID: "u2", MessageAuthor: "u1", EmojiName: "😀"},
			want: models.Occurrence{
				Category: models.CategoryReaction,
				Key:      "😀",
				Name:     "😀",
			},
			wantOK: true,
		},
		{
			name:   "self reaction excluded",
			ev:     ReactionEvent{ActorID: "u1", MessageAuthor: "u1", EmojiName: "😀"},
			wantOK: false,
		},
		{
			name:   "bot actor excluded",
			ev:     ReactionEvent{ActorID: "u2", ActorIsBot: true, MessageAuthor: "u1", EmojiName: "😀"},
			wantOK: false,
		},
		{
			name:   "missing emoji excluded",
			ev:     ReactionEvent{ActorID: "u2", MessageAuthor: "u1"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Reaction(tt.ev)
			if ok != tt.wantOK {
				t.Fatalf("Reaction() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reaction() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
