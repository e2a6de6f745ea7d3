// Package core provides filtering and sorting of listed notifications.
package core

import (
	"strings"
	"time"

	"github.com/jmylchreest/toasty/internal/adapter/output"
)

// FilterOptions specifies criteria for filtering entries.
// Zero values match everything.
type FilterOptions struct {
	Group  *string       // Exact match on group (nil=any, "" is the default group)
	Type   string        // Exact match on type
	Search string        // Case-insensitive substring of title or text
	Since  time.Duration // Only entries created within this window (0=all)
	Sticky *bool         // Only sticky (true) or expiring (false) entries
	Limit  int           // Maximum results (0=unlimited)
	Now    time.Time     // Reference for Since; zero means time.Now
}

// Filter returns the entries matching opts, preserving order.
func Filter(entries []output.Entry, opts FilterOptions) []output.Entry {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	term := strings.ToLower(opts.Search)

	result := make([]output.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.Group != nil && e.Group != *opts.Group {
			continue
		}
		if opts.Type != "" && !strings.EqualFold(e.Type, opts.Type) {
			continue
		}
		if opts.Since > 0 && e.CreatedAt.Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.Sticky != nil && e.Sticky() != *opts.Sticky {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Text), term) {
			continue
		}

		result = append(result, e)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result
}

// LookupByIndex finds an entry by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(entries []output.Entry, index int) *output.Entry {
	idx := index - 1
	if idx < 0 || idx >= len(entries) {
		return nil
	}
	return &entries[idx]
}
