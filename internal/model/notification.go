// Package model defines the notification item and request types shared by
// producers, queue managers and renderers.
package model

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of an Item.
// The numbering leaves 1 unused; only Idle and Destroyed are reachable.
type State int

const (
	// StateIdle is a queued item whose countdown is running (or that never expires).
	StateIdle State = 0
	// StateDestroyed is terminal and excluded from the active view.
	StateDestroyed State = 2
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Common item types understood by the bundled renderer and sound mapping.
// Type is free-form; these are conventions, not a closed set.
const (
	TypeInfo    = "info"
	TypeWarn    = "warn"
	TypeError   = "error"
	TypeSuccess = "success"
)

var idCounter atomic.Uint64

// NextID returns the next id from the process-wide monotonic sequence.
// Ids start at 1 so the zero value can mean "unset".
func NextID() uint64 {
	return idCounter.Add(1)
}

// Item is one queued or displayed notification.
type Item struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Type  string `json:"type,omitempty"`
	Group string `json:"group"`
	State State  `json:"state"`

	// Duration is the display time; negative means the item never expires.
	Duration time.Duration `json:"duration"`
	// Speed is the enter/leave animation duration.
	Speed time.Duration `json:"speed"`
	// Length is Duration + 2*Speed, the full lifetime budget of the item.
	Length time.Duration `json:"length"`

	// Data is passed through to renderers untouched.
	Data any `json:"data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the item is part of the active view.
func (i *Item) IsActive() bool {
	return i.State != StateDestroyed
}

// Sticky reports whether the item has no auto-expiry.
func (i *Item) Sticky() bool {
	return i.Duration < 0
}

// DedupeKey returns the key used for duplicate detection.
// Two items are duplicates when title and text are identical.
func (i *Item) DedupeKey() string {
	return i.Title + "\x1f" + i.Text
}

// ExpiresAt returns the nominal expiry time ignoring pauses.
// Zero means never expires.
func (i *Item) ExpiresAt() time.Time {
	if i.Sticky() {
		return time.Time{}
	}
	return i.CreatedAt.Add(i.Length)
}

// Request is a producer's notification request.
// Nil pointer fields inherit the receiving manager's options.
type Request struct {
	Group string `json:"group,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	Type  string `json:"type,omitempty"`
	Data  any    `json:"data,omitempty"`

	// ID overrides the generated id when non-zero.
	ID uint64 `json:"id,omitempty"`

	// Duration is the display time before the leave animation.
	// Negative means the item never expires.
	Duration         *time.Duration `json:"duration,omitempty"`
	Speed            *time.Duration `json:"speed,omitempty"`
	IgnoreDuplicates *bool          `json:"ignore_duplicates,omitempty"`

	// Clean and Clear both destroy every active item in the group
	// instead of adding one.
	Clean bool `json:"clean,omitempty"`
	Clear bool `json:"clear,omitempty"`
}

// TextRequest is the string shorthand: an untitled notification.
func TextRequest(text string) Request {
	return Request{Title: "", Text: text}
}

// IsClear reports whether the request asks to clear the group.
func (r Request) IsClear() bool {
	return r.Clean || r.Clear
}

// DedupeKey returns the key the request's item would carry.
func (r Request) DedupeKey() string {
	return r.Title + "\x1f" + r.Text
}

// WithDuration returns a copy of the request with Duration set.
func (r Request) WithDuration(d time.Duration) Request {
	r.Duration = &d
	return r
}

// WithSpeed returns a copy of the request with Speed set.
func (r Request) WithSpeed(d time.Duration) Request {
	r.Speed = &d
	return r
}

// WithIgnoreDuplicates returns a copy of the request with IgnoreDuplicates set.
func (r Request) WithIgnoreDuplicates(v bool) Request {
	r.IgnoreDuplicates = &v
	return r
}
