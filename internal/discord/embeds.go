package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hako/durafmt"

	"github.com/emojistatsbot/emojistats/internal/core/models"
)

const (
	colorError   = 0xE74C3C
	colorSuccess = 0x2ECC71
	colorInfo    = 0x3498DB
	colorWarning = 0xE67E22
)

// Items per embed page for history views.
const perPage = 10

func errorEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "❌ Error", Description: msg, Color: colorError}
}

func successEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "✔️ Success", Description: msg, Color: colorSuccess}
}

func infoEmbed(title, msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: msg, Color: colorInfo}
}

func titled(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ago(t time.Time) string {
	since := time.Since(t)
	if since < time.Minute {
		return "moments ago"
	}
	return durafmt.Parse(since.Round(time.Minute)).LimitFirstN(2).String() + " ago"
}

func itemLine(rank int, cat models.Category, it models.ItemCount) string {
	if cat == models.CategorySticker {
		return fmt.Sprintf("%d. **%s** — used %d times (last %s)", rank, it.Name, it.Count, ago(it.LastUsed))
	}
	// Emoji and reaction keys render natively in Discord.
	return fmt.Sprintf("%d. %s — used %d times (last %s)", rank, it.Key, it.Count, ago(it.LastUsed))
}

// listEmbed renders one page of a ranked item listing. The caller
// passes the full sequence; pagination is purely presentational.
func listEmbed(title string, cat models.Category, items []models.ItemCount, page int) *discordgo.MessageEmbed {
	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * perPage
	end := start + perPage
	if end > total {
		end = total
	}

	var sb strings.Builder
	for i, it := range items[start:end] {
		sb.WriteString(itemLine(start+i+1, cat, it))
		sb.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: sb.String(),
		Color:       colorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d • %d items", page+1, totalPages, total),
		},
	}
}

// historyComponents builds prev/next buttons for a paginated history
// view. The category and target page travel in the custom ID; each
// click re-queries and re-renders the page.
func historyComponents(cat models.Category, page, totalItems int) []discordgo.MessageComponent {
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages <= 1 {
		return nil
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.PrimaryButton,
					CustomID: fmt.Sprintf("hist:%s:%d", cat, page-1),
					Disabled: page <= 0,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.PrimaryButton,
					CustomID: fmt.Sprintf("hist:%s:%d", cat, page+1),
					Disabled: page >= totalPages-1,
				},
			},
		},
	}
}
