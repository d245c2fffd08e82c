// Package db owns the per-guild counter tables. Every guild gets one
// table per category, created lazily, named from the sanitized guild id
// so an id can never smuggle SQL into a table name.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emojistatsbot/emojistats/internal/core/models"
)

var (
	// ErrInvalidIdentifier means a guild id sanitized to nothing usable.
	ErrInvalidIdentifier = errors.New("identifier contains no valid characters")
	// ErrMissingStickerID means a sticker increment arrived without the id
	// that keys its row.
	ErrMissingStickerID = errors.New("sticker id is required to update sticker count")
)

// A DB struct holds the connection to sqlite and provides methods for
// interacting with persistent storage
type DB struct {
	db *sqlx.DB
}

// New creates an instance of our repository using the provided connection
func New(db *sqlx.DB) DB {
	return DB{
		db: db,
	}
}

// sanitizeIdentifier strips everything outside [A-Za-z0-9_] so the result
// is safe to splice into a table name. An input that sanitizes to empty
// is rejected.
func sanitizeIdentifier(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("sanitizing %q: %w", raw, ErrInvalidIdentifier)
	}
	return b.String(), nil
}

func tableName(guildID string, c models.Category) (string, error) {
	id, err := sanitizeIdentifier(guildID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("guild_%s_%s", id, c.TableSuffix()), nil
}

func createQuery(table string, c models.Category) string {
	if c == models.CategorySticker {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (sticker_id TEXT PRIMARY KEY, name TEXT, count INTEGER DEFAULT 0 NOT NULL, last_used TIMESTAMP);`, table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, count INTEGER DEFAULT 0 NOT NULL, last_used TIMESTAMP);`, table)
}

// EnsureGuildTables idempotently creates the category tables for a guild.
// A failure on one category does not stop the others; the result carries
// each category's outcome. The returned error is non-nil only when the
// guild id itself is unusable.
func (db DB) EnsureGuildTables(ctx context.Context, guildID string) (models.CategoryResults, error) {
	res := models.CategoryResults{}
	for _, c := range models.Categories() {
		table, err := tableName(guildID, c)
		if err != nil {
			return nil, err
		}
		if _, err := db.db.ExecContext(ctx, createQuery(table, c)); err != nil {
			res[c] = fmt.Errorf("error creating table %s: %s", table, err)
			continue
		}
		res[c] = nil
	}
	return res, nil
}

// RegisterGuild records a guild in the registry, keeping the original
// join time on repeat calls.
func (db DB) RegisterGuild(ctx context.Context, guildID string, joinedAt time.Time) error {
	q := `
	INSERT INTO guilds(guild_id, joined_at) VALUES (?, ?) ON CONFLICT(guild_id) DO NOTHING;
	`
	if _, err := db.db.ExecContext(ctx, q, guildID, joinedAt); err != nil {
		return fmt.Errorf("error registering guild: %s", err)
	}

	return nil
}

// upsertQuery builds the insert-or-increment statement for the category.
// The two variants differ only in their key column and whether the display
// name is refreshed on conflict.
func upsertQuery(table string, c models.Category) string {
	key := c.KeyColumn()
	if c == models.CategorySticker {
		return fmt.Sprintf(`INSERT INTO %s (%s, name, count, last_used) VALUES (?, ?, 1, ?) ON CONFLICT(%s) DO UPDATE SET count = count + 1, name = excluded.name, last_used = excluded.last_used;`, table, key, key)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s, count, last_used) VALUES (?, 1, ?) ON CONFLICT(%s) DO UPDATE SET count = count + 1, last_used = excluded.last_used;`, table, key, key)
}

// IncrementCount records one occurrence of an item as a single atomic
// upsert: the first occurrence creates the row with count 1, later ones
// increment it and refresh last_used. For stickers itemID keys the row
// and name is overwritten each time, since sticker names can change
// upstream.
func (db DB) IncrementCount(ctx context.Context, guildID string, c models.Category, key, name string, usedAt time.Time, itemID string) error {
	table, err := tableName(guildID, c)
	if err != nil {
		return err
	}

	var args []any
	if c == models.CategorySticker {
		if itemID == "" {
			return ErrMissingStickerID
		}
		args = []any{itemID, name, usedAt}
	} else {
		args = []any{key, usedAt}
	}

	if _, err := db.db.ExecContext(ctx, upsertQuery(table, c), args...); err != nil {
		return fmt.Errorf("error incrementing count in %s: %s", table, err)
	}

	return nil
}

// Columns an ORDER BY may name. Anything else falls back to count
// rather than failing the query.
func orderColumn(c models.Category, orderBy string) string {
	switch orderBy {
	case "name", "count", "last_used":
		return orderBy
	case "sticker_id":
		if c == models.CategorySticker {
			return orderBy
		}
	}
	return "count"
}

func selectColumns(c models.Category) string {
	if c == models.CategorySticker {
		return "sticker_id AS item_key, name AS display_name, count, last_used"
	}
	return "name AS item_key, name AS display_name, count, last_used"
}

// GetRanked returns the items with count > 0, sorted by orderBy in the
// requested direction. A limit <= 0 means no limit. Ties land in
// whatever order sqlite returns them; callers must not depend on it.
func (db DB) GetRanked(ctx context.Context, guildID string, c models.Category, orderBy string, ascending bool, limit int) ([]models.ItemCount, error) {
	table, err := tableName(guildID, c)
	if err != nil {
		return nil, err
	}

	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	if limit <= 0 {
		limit = -1
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE count > 0 ORDER BY %s %s LIMIT ?;`, selectColumns(c), table, orderColumn(c, orderBy), dir)

	items := []models.ItemCount{}
	if err := db.db.SelectContext(ctx, &items, q, limit); err != nil {
		return nil, fmt.Errorf("error retrieving counts from %s: %s", table, err)
	}

	return items, nil
}

// GetAll returns every item with count > 0, most used first.
func (db DB) GetAll(ctx context.Context, guildID string, c models.Category) ([]models.ItemCount, error) {
	return db.GetRanked(ctx, guildID, c, "count", false, 0)
}

// TrackingSince returns the earliest recorded use in the category, or
// ok=false when nothing has been tracked yet.
func (db DB) TrackingSince(ctx context.Context, guildID string, c models.Category) (time.Time, bool, error) {
	table, err := tableName(guildID, c)
	if err != nil {
		return time.Time{}, false, err
	}

	q := fmt.Sprintf(`SELECT last_used FROM %s WHERE last_used IS NOT NULL ORDER BY last_used ASC LIMIT 1;`, table)

	var since time.Time
	if err := db.db.GetContext(ctx, &since, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("error retrieving tracking start from %s: %s", table, err)
	}

	return since, true, nil
}

// ResetCounts zeroes every counter for the guild but keeps the rows, so
// the set of tracked items survives. Per-category outcomes are reported
// separately; a failed category does not stop the others.
func (db DB) ResetCounts(ctx context.Context, guildID string) (models.CategoryResults, error) {
	return db.perCategoryExec(ctx, guildID, "UPDATE %s SET count = 0;", "resetting")
}

// WipeGuild deletes every tracked row for the guild. The tables remain,
// empty.
func (db DB) WipeGuild(ctx context.Context, guildID string) (models.CategoryResults, error) {
	return db.perCategoryExec(ctx, guildID, "DELETE FROM %s;", "wiping")
}

func (db DB) perCategoryExec(ctx context.Context, guildID, format, verb string) (models.CategoryResults, error) {
	res := models.CategoryResults{}
	for _, c := range models.Categories() {
		table, err := tableName(guildID, c)
		if err != nil {
			return nil, err
		}
		if _, err := db.db.ExecContext(ctx, fmt.Sprintf(format, table)); err != nil {
			res[c] = fmt.Errorf("error %s %s: %s", verb, table, err)
			continue
		}
		res[c] = nil
	}
	return res, nil
}
