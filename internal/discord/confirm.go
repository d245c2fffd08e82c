package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/emojistatsbot/emojistats/internal/metrics"
)

// Destructive admin operations require an explicit human decision before
// the core is invoked. The decision has three outcomes; only a confirm
// within the window actually runs the operation.
type Decision int

const (
	DecisionConfirmed Decision = iota
	DecisionDeclined
	DecisionTimedOut
)

func (d Decision) String() string {
	switch d {
	case DecisionConfirmed:
		return "confirmed"
	case DecisionDeclined:
		return "declined"
	case DecisionTimedOut:
		return "timed_out"
	}
	return "unknown"
}

const confirmWindow = 60 * time.Second

// A confirmation is carried entirely inside the button custom IDs, so
// this layer needs no pending-operation registry: the op, the only user
// allowed to answer, and the deadline all round-trip through Discord.
type confirmation struct {
	Op       string // "reset" or "wipe"
	Verdict  string // "confirm" or "cancel"
	UserID   string
	Deadline time.Time
}

func (c confirmation) customID() string {
	return fmt.Sprintf("admin:%s:%s:%s:%d", c.Op, c.Verdict, c.UserID, c.Deadline.Unix())
}

// timerKey identifies a prompt rather than a button: the confirm and
// cancel buttons of one prompt share it.
func (c confirmation) timerKey() string {
	return fmt.Sprintf("%s:%s:%d", c.Op, c.UserID, c.Deadline.Unix())
}

func parseConfirmation(customID string) (confirmation, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 5 || parts[0] != "admin" {
		return confirmation{}, false
	}

	unix, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return confirmation{}, false
	}

	return confirmation{
		Op:       parts[1],
		Verdict:  parts[2],
		UserID:   parts[3],
		Deadline: time.Unix(unix, 0),
	}, true
}

// decide maps a button click to one of the three outcomes. A click that
// lands after the deadline counts as a timeout no matter which button
// it was.
func (c confirmation) decide(now time.Time) Decision {
	if now.After(c.Deadline) {
		return DecisionTimedOut
	}
	if c.Verdict == "confirm" {
		return DecisionConfirmed
	}
	return DecisionDeclined
}

// scheduleConfirmExpiry arms a timer that replaces the prompt with a
// timed-out notice once the window lapses with no click. The expiry
// callback must claim the timer from the map before editing, so a
// concurrent click and the expiry never both rewrite the message.
func (b *Bot) scheduleConfirmExpiry(s *discordgo.Session, i *discordgo.Interaction, conf confirmation) {
	key := conf.timerKey()
	timer := time.AfterFunc(time.Until(conf.Deadline), func() {
		if _, ok := b.confirmTimers.LoadAndDelete(key); !ok {
			return
		}

		metrics.AdminOps.WithLabelValues(conf.Op, DecisionTimedOut.String()).Inc()

		embeds := []*discordgo.MessageEmbed{infoEmbed("ℹ️ Timed out", "Confirmation timed out; nothing was changed.")}
		components := []discordgo.MessageComponent{}
		_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
			Embeds:     &embeds,
			Components: &components,
		})
		if err != nil {
			b.l.Errorw("error expiring confirmation prompt", "op", conf.Op, "err", err)
		}
	})
	b.confirmTimers.Store(key, timer)
}

// cancelConfirmExpiry disarms the expiry timer when a click resolves
// the prompt first.
func (b *Bot) cancelConfirmExpiry(conf confirmation) {
	if v, ok := b.confirmTimers.LoadAndDelete(conf.timerKey()); ok {
		v.(*time.Timer).Stop()
	}
}
