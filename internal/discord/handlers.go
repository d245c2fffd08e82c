package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/emojistatsbot/emojistats/internal/core/models"
	"github.com/emojistatsbot/emojistats/internal/metrics"
)

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	data.Flags = discordgo.MessageFlagsEphemeral
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.l.Errorw("error responding to interaction", "err", err)
	}
}

func (b *Bot) update(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
	if err != nil {
		b.l.Errorw("error updating interaction message", "err", err)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		b.respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("This command can only be used in a server.")},
		})
		return
	}

	data := i.ApplicationCommandData()

	if cat, ok := models.ParseCategory(data.Name); ok {
		b.handleRanked(s, i, cat, data)
		return
	}

	switch data.Name {
	case "stats":
		b.handleStats(s, i)
	case "help":
		b.respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{helpEmbed()}})
	case "admin":
		b.handleAdminCommand(s, i, data)
	}
}

func (b *Bot) handleRanked(s *discordgo.Session, i *discordgo.InteractionCreate, cat models.Category, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	limit := defaultLimit
	if len(sub.Options) > 0 && sub.Options[0].Name == "limit" {
		limit = int(sub.Options[0].IntValue())
	}

	ctx := context.Background()

	var (
		items []models.ItemCount
		title string
		err   error
	)
	switch sub.Name {
	case "top":
		items, err = b.cr.Top(ctx, i.GuildID, cat, limit)
		title = fmt.Sprintf("👑 Top %d %s", limit, cat.TableSuffix())
	case "rare":
		items, err = b.cr.Rare(ctx, i.GuildID, cat, limit)
		title = fmt.Sprintf("💀 Rarest %d %s", limit, cat.TableSuffix())
	case "history":
		items, err = b.cr.History(ctx, i.GuildID, cat)
		title = fmt.Sprintf("📜 %s usage history", titled(string(cat)))
	default:
		return
	}
	if err != nil {
		b.l.Errorw("error fetching ranked items", "guild_id", i.GuildID, "category", cat, "view", sub.Name, "err", err)
		metrics.StorageFailures.WithLabelValues("query").Inc()
		b.respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed(fmt.Sprintf("Failed to fetch %s data.", cat))},
		})
		return
	}

	if len(items) == 0 {
		b.respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{infoEmbed("ℹ️ Nothing here yet", fmt.Sprintf("No %s usage data found yet.", cat))},
		})
		return
	}

	resp := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{listEmbed(title, cat, items, 0)},
	}
	if sub.Name == "history" {
		resp.Components = historyComponents(cat, 0, len(items))
	}
	b.respond(s, i, resp)
}

func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	embed := &discordgo.MessageEmbed{
		Title: "📊 Tracking stats",
		Color: colorInfo,
	}

	for _, cat := range models.Categories() {
		items, err := b.cr.History(ctx, i.GuildID, cat)
		if err != nil {
			b.l.Errorw("error fetching stats", "guild_id", i.GuildID, "category", cat, "err", err)
			metrics.StorageFailures.WithLabelValues("query").Inc()
			continue
		}

		var total uint
		for _, it := range items {
			total += it.Count
		}

		value := fmt.Sprintf("%d tracked, %d uses", len(items), total)
		if since, ok, err := b.cr.TrackingSince(ctx, i.GuildID, cat); err == nil && ok {
			value += fmt.Sprintf("\ntracking for %s", strings.TrimSuffix(ago(since), " ago"))
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   titled(cat.TableSuffix()),
			Value:  value,
			Inline: true,
		})
	}

	b.respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func memberCanAdministrate(m *discordgo.Member) bool {
	return m.Permissions&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

func (b *Bot) handleAdminCommand(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !memberCanAdministrate(i.Member) {
		b.respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("You need the Manage Server permission to use this command.")},
		})
		return
	}

	if len(data.Options) == 0 {
		return
	}

	var op, warning string
	switch data.Options[0].Name {
	case "reset_data":
		op = "reset"
		warning = "This will reset **ALL** usage counts to **ZERO** for this server.\n" +
			"Tracked items will remain, but their counts will be 0."
	case "wipe_data":
		op = "wipe"
		warning = "This action is **IRREVERSIBLE** and will permanently delete **ALL** tracked data for this server:\n" +
			"- Emoji usage counts\n- Reaction usage counts\n- Sticker usage counts"
	default:
		return
	}

	deadline := time.Now().Add(confirmWindow)
	confirm := confirmation{Op: op, Verdict: "confirm", UserID: i.Member.User.ID, Deadline: deadline}
	cancel := confirmation{Op: op, Verdict: "cancel", UserID: i.Member.User.ID, Deadline: deadline}

	b.respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "⚠️ Confirmation required",
			Description: warning + "\n\nClick `Confirm` to proceed or `Cancel` to abort.",
			Color:       colorWarning,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Confirm", Style: discordgo.DangerButton, CustomID: confirm.customID()},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: cancel.customID()},
				},
			},
		},
	})

	b.scheduleConfirmExpiry(s, i.Interaction, confirm)
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if strings.HasPrefix(customID, "hist:") {
		b.handleHistoryPage(s, i, customID)
		return
	}

	if conf, ok := parseConfirmation(customID); ok {
		b.handleConfirmClick(s, i, conf)
	}
}

func (b *Bot) handleHistoryPage(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return
	}
	cat, ok := models.ParseCategory(parts[1])
	if !ok {
		return
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 0 {
		return
	}

	items, err := b.cr.History(context.Background(), i.GuildID, cat)
	if err != nil {
		b.l.Errorw("error fetching history page", "guild_id", i.GuildID, "category", cat, "err", err)
		metrics.StorageFailures.WithLabelValues("query").Inc()
		return
	}

	title := fmt.Sprintf("📜 %s usage history", titled(string(cat)))
	b.update(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{listEmbed(title, cat, items, page)},
		Components: historyComponents(cat, page, len(items)),
	})
}

func (b *Bot) handleConfirmClick(s *discordgo.Session, i *discordgo.InteractionCreate, conf confirmation) {
	if i.Member == nil || i.Member.User == nil {
		return
	}
	if i.Member.User.ID != conf.UserID {
		b.respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("This confirmation belongs to someone else.")},
		})
		return
	}

	b.cancelConfirmExpiry(conf)

	decision := conf.decide(time.Now())
	metrics.AdminOps.WithLabelValues(conf.Op, decision.String()).Inc()

	switch decision {
	case DecisionTimedOut:
		b.update(s, i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{infoEmbed("ℹ️ Timed out", "Confirmation timed out; nothing was changed.")},
			Components: []discordgo.MessageComponent{},
		})
	case DecisionDeclined:
		b.update(s, i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{infoEmbed("ℹ️ Cancelled", "Operation cancelled; nothing was changed.")},
			Components: []discordgo.MessageComponent{},
		})
	case DecisionConfirmed:
		b.runAdminOp(s, i, conf.Op)
	}
}

// runAdminOp performs the confirmed operation unconditionally; the
// safety policy lives entirely in the confirmation step above.
func (b *Bot) runAdminOp(s *discordgo.Session, i *discordgo.InteractionCreate, op string) {
	var (
		res models.CategoryResults
		err error
		msg string
	)
	switch op {
	case "reset":
		res, err = b.cr.Reset(context.Background(), i.GuildID)
		msg = "♻️ All tracked counts for this server have been reset to zero."
	case "wipe":
		res, err = b.cr.Wipe(context.Background(), i.GuildID)
		msg = "💥 All tracked data for this server has been permanently deleted."
	default:
		return
	}

	if err != nil {
		b.l.Errorw("error running admin operation", "guild_id", i.GuildID, "op", op, "err", err)
		metrics.StorageFailures.WithLabelValues(op).Inc()
		b.update(s, i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{errorEmbed("An error occurred; nothing was changed.")},
			Components: []discordgo.MessageComponent{},
		})
		return
	}

	if !res.OK() {
		b.l.Errorw("admin operation partially failed", "guild_id", i.GuildID, "op", op, "failed", res.Failed(), "err", res.Err())
		metrics.StorageFailures.WithLabelValues(op).Inc()

		names := make([]string, 0, len(res.Failed()))
		for _, c := range res.Failed() {
			names = append(names, string(c))
		}
		b.update(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed(
				fmt.Sprintf("The operation failed for: %s. Other categories were processed.", strings.Join(names, ", ")),
			)},
			Components: []discordgo.MessageComponent{},
		})
		return
	}

	b.l.Infow("admin operation complete", "guild_id", i.GuildID, "op", op, "user_id", i.Member.User.ID)
	b.update(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{successEmbed(msg)},
		Components: []discordgo.MessageComponent{},
	})
}
