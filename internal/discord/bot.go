// Package discord wires the counting core to the Discord gateway: it
// listens for messages and reactions, feeds resolved occurrences into
// the store, and serves the slash-command surface.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/emojistatsbot/emojistats/internal/core"
	"github.com/emojistatsbot/emojistats/internal/core/models"
	"github.com/emojistatsbot/emojistats/internal/metrics"
	"github.com/emojistatsbot/emojistats/internal/resolve"
)

type Config struct {
	Token string
	// Guilds to register commands in. Empty means register globally.
	GuildIDs []string
	// If we should not try to register commands with discord
	SkipRegister bool
}

// Bot owns the gateway session. It holds no counter state of its own;
// the storage layer is the sole synchronization point.
type Bot struct {
	session *discordgo.Session
	cr      core.Core
	cfg     Config

	// Timers that disable a confirmation prompt's buttons once its
	// window lapses. Purely presentational; the deadline itself lives
	// in the button custom IDs.
	confirmTimers sync.Map

	l *zap.SugaredLogger
}

// New builds the session and attaches every handler, but does not
// connect. Call Open to start receiving events.
func New(cfg Config, cr core.Core, l *zap.SugaredLogger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %s", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	b := &Bot{
		session: s,
		cr:      cr,
		cfg:     cfg,
		l:       l,
	}

	s.AddHandler(b.onReady)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onReactionAdd)
	s.AddHandler(b.onInteraction)

	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening gateway connection: %s", err)
	}

	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	b.confirmTimers.Range(func(key, v any) bool {
		v.(*time.Timer).Stop()
		b.confirmTimers.Delete(key)
		return true
	})

	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.l.Infow("gateway ready", "user", r.User.Username, "user_id", r.User.ID)

	if b.cfg.SkipRegister {
		b.l.Debug("skipping command registration")
		return
	}

	if err := b.registerCommands(s); err != nil {
		b.l.Errorw("error registering commands", "err", err)
	}
}

// onGuildCreate fires once per guild on connect and again whenever the
// bot joins a new guild; either way the guild's tables must exist
// before events for it arrive.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	res, err := b.cr.EnsureGuild(context.Background(), g.ID)
	if err != nil {
		b.l.Errorw("error ensuring guild tables", "guild_id", g.ID, "err", err)
		metrics.StorageFailures.WithLabelValues("ensure").Inc()
		return
	}
	if !res.OK() {
		b.l.Errorw("some guild tables could not be created", "guild_id", g.ID, "failed", res.Failed(), "err", res.Err())
		metrics.StorageFailures.WithLabelValues("ensure").Inc()
		return
	}

	b.l.Infow("guild ready", "guild_id", g.ID, "name", g.Name)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}

	occs := resolve.ScanMessage(m.Content)

	if len(m.StickerItems) > 0 {
		items := make([]resolve.StickerItem, 0, len(m.StickerItems))
		for _, st := range m.StickerItems {
			items = append(items, resolve.StickerItem{ID: st.ID, Name: st.Name})
		}
		occs = append(occs, resolve.Stickers(items)...)
	}

	for _, occ := range occs {
		b.record(m.GuildID, occ)
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" {
		return
	}

	actorIsBot := false
	if r.Member != nil && r.Member.User != nil {
		actorIsBot = r.Member.User.Bot
	}

	authorID, err := b.messageAuthor(s, r.ChannelID, r.MessageID)
	if err != nil {
		b.l.Errorw("error looking up reacted-to message", "channel_id", r.ChannelID, "message_id", r.MessageID, "err", err)
		return
	}

	occ, ok := resolve.Reaction(resolve.ReactionEvent{
		ActorID:       r.UserID,
		ActorIsBot:    actorIsBot,
		MessageAuthor: authorID,
		EmojiName:     r.Emoji.Name,
		EmojiID:       r.Emoji.ID,
		Animated:      r.Emoji.Animated,
	})
	if !ok {
		return
	}

	b.record(r.GuildID, occ)
}

// messageAuthor resolves the author of a message, preferring the state
// cache and falling back to the API.
func (b *Bot) messageAuthor(s *discordgo.Session, channelID, messageID string) (string, error) {
	if msg, err := s.State.Message(channelID, messageID); err == nil && msg.Author != nil {
		return msg.Author.ID, nil
	}

	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		return "", fmt.Errorf("error fetching message: %s", err)
	}
	if msg.Author == nil {
		return "", nil
	}

	return msg.Author.ID, nil
}

func (b *Bot) record(guildID string, occ models.Occurrence) {
	if err := b.cr.Record(context.Background(), guildID, occ); err != nil {
		b.l.Errorw("error recording occurrence", "guild_id", guildID, "category", occ.Category, "key", occ.Key, "err", err)
		metrics.StorageFailures.WithLabelValues("increment").Inc()
		return
	}

	metrics.ItemsTracked.WithLabelValues(string(occ.Category)).Inc()
}
