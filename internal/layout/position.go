// Package layout resolves where a notification region sits on screen
// and how wide it is.
package layout

import "strings"

// Horizontal is the horizontal anchor of a region.
type Horizontal string

// Vertical is the vertical anchor of a region.
type Vertical string

const (
	Left   Horizontal = "left"
	Center Horizontal = "center"
	Right  Horizontal = "right"

	Top    Vertical = "top"
	Bottom Vertical = "bottom"
)

// Position is a parsed anchor. An empty field means no anchor on that axis.
type Position struct {
	X Horizontal
	Y Vertical
}

// DefaultPosition is the anchor used when nothing is configured.
var DefaultPosition = Position{X: Right, Y: Top}

// ParsePosition parses a whitespace separated list of tokens such as
// "bottom left". Matching is case-sensitive; unknown tokens are ignored
// and the last match on each axis wins.
func ParsePosition(value string) Position {
	return ParsePositionTokens(strings.Fields(value))
}

// ParsePositionTokens is ParsePosition for an already split token list.
func ParsePositionTokens(tokens []string) Position {
	var p Position
	for _, tok := range tokens {
		switch tok {
		case string(Top), string(Bottom):
			p.Y = Vertical(tok)
		case string(Left), string(Center), string(Right):
			p.X = Horizontal(tok)
		}
	}
	return p
}

// IsBottom reports whether the region is anchored to the bottom edge.
func (p Position) IsBottom() bool {
	return p.Y == Bottom
}

// String returns the position in "y x" token form.
func (p Position) String() string {
	parts := make([]string, 0, 2)
	if p.Y != "" {
		parts = append(parts, string(p.Y))
	}
	if p.X != "" {
		parts = append(parts, string(p.X))
	}
	return strings.Join(parts, " ")
}
