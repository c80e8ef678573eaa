// Package status renders the daily construction update that every reply
// prompt and fallback message carries.
package status

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Item is one line of the update, e.g. {"Internal roads", "90% complete"}.
type Item struct {
	Label    string `toml:"label"`
	Progress string `toml:"progress"`
}

// Board holds the project progress items.
type Board struct {
	Items []Item `toml:"item"`
}

// Default is the board used when no status file is configured.
func Default() *Board {
	return &Board{Items: []Item{
		{Label: "Internal roads", Progress: "90% complete"},
		{Label: "Clubhouse foundation", Progress: "completed"},
		{Label: "Landscaping work", Progress: "in progress"},
		{Label: "Electrical trenching", Progress: "~40%"},
	}}
}

// LoadFile reads a board from a TOML file of [[item]] tables.
func LoadFile(path string) (*Board, error) {
	var b Board
	if _, err := toml.DecodeFile(path, &b); err != nil {
		return nil, fmt.Errorf("parse status file: %w", err)
	}
	if len(b.Items) == 0 {
		return nil, errors.New("status file has no items")
	}
	for i, it := range b.Items {
		if strings.TrimSpace(it.Label) == "" {
			return nil, fmt.Errorf("status item %d: empty label", i)
		}
	}
	return &b, nil
}

// Text renders the update for the given day. The output depends only on the
// items and the calendar date.
func (b *Board) Text(day time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today's Update (%s):\n", day.Format("02 January 2006"))
	for _, it := range b.Items {
		fmt.Fprintf(&sb, "• %s: %s\n", it.Label, it.Progress)
	}
	return sb.String()
}
