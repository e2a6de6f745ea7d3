// Package output provides output formatters for active notifications.
package output

import (
	"io"
	"time"
)

// Entry is one active notification as listed by the CLI.
type Entry struct {
	ID        uint64    `json:"id"`
	Group     string    `json:"group"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Remaining is nil for items that never expire.
	Remaining *time.Duration `json:"remaining,omitempty"`
	Paused    bool           `json:"paused,omitempty"`
}

// Sticky reports whether the entry has no countdown.
func (e *Entry) Sticky() bool {
	return e.Remaining == nil
}

// Formatter formats entries for output.
type Formatter interface {
	// Format writes formatted entries to the writer.
	Format(w io.Writer, entries []Entry) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatIDs   FormatType = "ids"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string // Custom template for dmenu/plain format
	ShowIndex      bool   // Show 1-based index prefix
	ShowAge        bool   // Show time since creation
	ShowGroup      bool   // Show the region name
	BodyMaxLen     int    // Maximum text length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	IncludeNewline bool   // Include newlines in text (default: replace with space)

	// Now is the reference time for ages; nil means time.Now.
	Now func() time.Time
}

// DefaultFormatterOptions returns sensible defaults for dmenu output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:      true,
		ShowAge:        true,
		ShowGroup:      true,
		BodyMaxLen:     80,
		Separator:      " | ",
		IncludeNewline: false,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// groupName renders the unnamed group readably.
func groupName(g string) string {
	if g == "" {
		return "default"
	}
	return g
}
