package core

import (
	"sort"
	"strings"

	"github.com/jmylchreest/toasty/internal/adapter/output"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByCreated   SortField = "created"
	SortByGroup     SortField = "group"
	SortByType      SortField = "type"
	SortByRemaining SortField = "remaining"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns default sort options (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByCreated,
		Order: SortDesc,
	}
}

// Sort sorts entries in place. Ties keep their region order.
func Sort(entries []output.Entry, opts SortOptions) {
	if len(entries) < 2 {
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if opts.Order == SortDesc {
			a, b = b, a
		}

		switch opts.Field {
		case SortByGroup:
			return a.Group < b.Group
		case SortByType:
			return strings.ToLower(a.Type) < strings.ToLower(b.Type)
		case SortByRemaining:
			return remainingLess(a, b)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// remainingLess orders sticky entries after every expiring one.
func remainingLess(a, b *output.Entry) bool {
	switch {
	case a.Sticky():
		return false
	case b.Sticky():
		return true
	default:
		return *a.Remaining < *b.Remaining
	}
}

// ParseSortField parses a sort field string. Unknown values fall back to
// the creation time.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "group", "g":
		return SortByGroup
	case "type", "t":
		return SortByType
	case "remaining", "r":
		return SortByRemaining
	default:
		return SortByCreated
	}
}

// ParseSortOrder parses a sort order string. Unknown values mean descending.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc
	default:
		return SortDesc
	}
}
