// Package models provides the structs exposed by the core package,
// but put in an independent package to break the dependency cycle
// between `core` and `db`
package models

import (
	"errors"
	"time"
)

// A Category is one of the three kinds of tracked items. Categories are
// fixed; each one gets its own table per guild.
type Category string

const (
	CategoryEmoji    Category = "emoji"
	CategoryReaction Category = "reaction"
	CategorySticker  Category = "sticker"
)

// Categories returns every category, in table-creation order.
func Categories() []Category {
	return []Category{CategoryEmoji, CategoryReaction, CategorySticker}
}

// ParseCategory returns the category named by s, or false when s names
// no known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryEmoji, CategoryReaction, CategorySticker:
		return Category(s), true
	}
	return "", false
}

// TableSuffix is the per-guild table name suffix for the category.
func (c Category) TableSuffix() string {
	switch c {
	case CategoryEmoji:
		return "emojis"
	case CategoryReaction:
		return "reactions"
	case CategorySticker:
		return "stickers"
	}
	return ""
}

// KeyColumn is the column holding the item key. Stickers key on their
// numeric id since names can change upstream; everything else keys on
// the name itself.
func (c Category) KeyColumn() string {
	if c == CategorySticker {
		return "sticker_id"
	}
	return "name"
}

// An ItemCount is a usage counter for a single tracked item within a
// guild and category.
type ItemCount struct {
	Key      string    `db:"item_key" json:"key"`
	Name     string    `db:"display_name" json:"name"`
	Count    uint      `db:"count" json:"count"`
	LastUsed time.Time `db:"last_used" json:"last_used"`
}

// An Occurrence is a single resolved sighting of a trackable item,
// produced by the resolve package and consumed by core.Record. For
// stickers the key is the sticker's id and Name its current display
// name; for emoji and reactions the key is the display form itself.
type Occurrence struct {
	Category Category
	Key      string
	Name     string
}

// CategoryResults reports the outcome of an operation that touches
// every category table for a guild, one entry per category. A nil
// value means that category succeeded.
type CategoryResults map[Category]error

// OK reports whether every category succeeded.
func (r CategoryResults) OK() bool {
	for _, err := range r {
		if err != nil {
			return false
		}
	}
	return true
}

// Failed returns the categories that did not succeed.
func (r CategoryResults) Failed() []Category {
	var out []Category
	for _, c := range Categories() {
		if r[c] != nil {
			out = append(out, c)
		}
	}
	return out
}

// Err joins the per-category errors, or returns nil when all succeeded.
func (r CategoryResults) Err() error {
	var errs []error
	for _, c := range Categories() {
		if r[c] != nil {
			errs = append(errs, r[c])
		}
	}
	return errors.Join(errs...)
}
