package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/emojistatsbot/emojistats/internal/core"
	"github.com/emojistatsbot/emojistats/internal/core/models"
)

const defaultLimit = 10

func limitOption(noun string) *discordgo.ApplicationCommandOption {
	min := float64(core.MinLimit)
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "limit",
		Description: fmt.Sprintf("How many %s to show (1-25, default %d)", noun, defaultLimit),
		MinValue:    &min,
		MaxValue:    float64(core.MaxLimit),
	}
}

func categoryCommand(cat models.Category, noun string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        string(cat),
		Description: fmt.Sprintf("Commands related to %s tracking.", cat),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "top",
				Description: fmt.Sprintf("Show the most used %s.", noun),
				Options:     []*discordgo.ApplicationCommandOption{limitOption(noun)},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "rare",
				Description: fmt.Sprintf("Show the least used %s.", noun),
				Options:     []*discordgo.ApplicationCommandOption{limitOption(noun)},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: fmt.Sprintf("View full %s usage history (paginated).", cat),
			},
		},
	}
}

func commandDefs() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		categoryCommand(models.CategoryEmoji, "emojis"),
		categoryCommand(models.CategoryReaction, "reactions"),
		categoryCommand(models.CategorySticker, "stickers"),
		{
			Name:        "stats",
			Description: "Show tracking stats for this server.",
		},
		{
			Name:        "help",
			Description: "Show the available commands.",
		},
		{
			Name:        "admin",
			Description: "Administrative commands for the bot.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset_data",
					Description: "[Admin] Reset all usage counts to zero (keeps items tracked).",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "wipe_data",
					Description: "[Admin] Permanently delete ALL tracked data for this server.",
				},
			},
		},
	}
}

// helpEmbed renders the command listing straight from the registered
// definitions, so it can never drift from the actual surface.
func helpEmbed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "ℹ️ Commands",
		Description: "Here are the available commands:",
		Color:       colorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Arguments shown in [brackets] are optional.",
		},
	}

	for _, cmd := range commandDefs() {
		var sb strings.Builder
		if len(cmd.Options) == 0 {
			fmt.Fprintf(&sb, "`/%s` - %s\n", cmd.Name, cmd.Description)
		}
		for _, sub := range cmd.Options {
			usage := fmt.Sprintf("/%s %s", cmd.Name, sub.Name)
			for _, opt := range sub.Options {
				usage += fmt.Sprintf(" [%s]", opt.Name)
			}
			fmt.Fprintf(&sb, "`%s` - %s\n", usage, sub.Description)
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  titled(cmd.Name),
			Value: strings.TrimRight(sb.String(), "\n"),
		})
	}

	return embed
}

func (b *Bot) registerCommands(s *discordgo.Session) error {
	appID := s.State.User.ID
	defs := commandDefs()

	if len(b.cfg.GuildIDs) == 0 {
		if _, err := s.ApplicationCommandBulkOverwrite(appID, "", defs); err != nil {
			return fmt.Errorf("error registering global commands: %s", err)
		}
		b.l.Infow("registered global commands", "count", len(defs))
		return nil
	}

	for _, guildID := range b.cfg.GuildIDs {
		if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, defs); err != nil {
			return fmt.Errorf("error registering commands for guild '%s': %s", guildID, err)
		}
		b.l.Infow("registered guild commands", "guild_id", guildID, "count", len(defs))
	}

	return nil
}
