package core

import (
	"context"
	"fmt"
	"time"

	"github.com/emojistatsbot/emojistats/internal/core/db"
	"github.com/emojistatsbot/emojistats/internal/core/models"
)

// Leaderboard queries accept 1 to 25 items; anything outside is clamped.
const (
	MinLimit = 1
	MaxLimit = 25
)

type Core struct {
	db db.DB
}

func New(db db.DB) Core {
	return Core{
		db: db,
	}
}

// EnsureGuild makes sure every counter table exists for the guild and
// records it in the registry. Safe to call repeatedly. The results tell
// the caller which categories, if any, could not be set up.
func (c Core) EnsureGuild(ctx context.Context, guildID string) (models.CategoryResults, error) {
	res, err := c.db.EnsureGuildTables(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error ensuring tables: %s", err)
	}

	if err := c.db.RegisterGuild(ctx, guildID, time.Now().UTC()); err != nil {
		return res, fmt.Errorf("error registering guild: %s", err)
	}

	return res, nil
}

// Record counts one occurrence for the guild, stamped with the current
// time.
func (c Core) Record(ctx context.Context, guildID string, occ models.Occurrence) error {
	itemID := ""
	if occ.Category == models.CategorySticker {
		itemID = occ.Key
	}

	if err := c.db.IncrementCount(ctx, guildID, occ.Category, occ.Key, occ.Name, time.Now().UTC(), itemID); err != nil {
		return fmt.Errorf("error incrementing count: %s", err)
	}

	return nil
}

func clampLimit(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Top returns the most used items in the category, largest count first.
func (c Core) Top(ctx context.Context, guildID string, cat models.Category, limit int) ([]models.ItemCount, error) {
	items, err := c.db.GetRanked(ctx, guildID, cat, "count", false, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error getting top counts: %s", err)
	}

	return items, nil
}

// Rare returns the least used items in the category. Only items that
// have been used at least once can appear.
func (c Core) Rare(ctx context.Context, guildID string, cat models.Category, limit int) ([]models.ItemCount, error) {
	items, err := c.db.GetRanked(ctx, guildID, cat, "count", true, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error getting rare counts: %s", err)
	}

	return items, nil
}

// History returns every used item in the category, most used first.
func (c Core) History(ctx context.Context, guildID string, cat models.Category) ([]models.ItemCount, error) {
	items, err := c.db.GetAll(ctx, guildID, cat)
	if err != nil {
		return nil, fmt.Errorf("error getting history: %s", err)
	}

	return items, nil
}

// TrackingSince returns when tracking started for the category, or
// ok=false when nothing has been recorded.
func (c Core) TrackingSince(ctx context.Context, guildID string, cat models.Category) (time.Time, bool, error) {
	since, ok, err := c.db.TrackingSince(ctx, guildID, cat)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error getting tracking start: %s", err)
	}

	return since, ok, nil
}

// Reset zeroes all counts for the guild, keeping the tracked items.
// Callers are expected to have confirmed this with a human first.
func (c Core) Reset(ctx context.Context, guildID string) (models.CategoryResults, error) {
	res, err := c.db.ResetCounts(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error resetting counts: %s", err)
	}

	return res, nil
}

// Wipe deletes all tracked data for the guild. Callers are expected to
// have confirmed this with a human first.
func (c Core) Wipe(ctx context.Context, guildID string) (models.CategoryResults, error) {
	res, err := c.db.WipeGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error wiping data: %s", err)
	}

	return res, nil
}
