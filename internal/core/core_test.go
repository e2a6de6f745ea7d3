package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/adapter/output"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func testEntries() []output.Entry {
	return []output.Entry{
		{ID: 1, Group: "", Title: "Build finished", Type: "success", CreatedAt: now.Add(-10 * time.Minute), Remaining: ptr(2 * time.Second)},
		{ID: 2, Group: "ops", Title: "Deploy failed", Text: "exit status 1", Type: "error", CreatedAt: now.Add(-time.Minute)},
		{ID: 3, Group: "ops", Title: "Disk", Text: "90% full", Type: "warn", CreatedAt: now.Add(-2 * time.Hour), Remaining: ptr(time.Second)},
	}
}

func ids(entries []output.Entry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		want []uint64
	}{
		{"no filter", FilterOptions{}, []uint64{1, 2, 3}},
		{"default group", FilterOptions{Group: ptr("")}, []uint64{1}},
		{"named group", FilterOptions{Group: ptr("ops")}, []uint64{2, 3}},
		{"type ignores case", FilterOptions{Type: "ERROR"}, []uint64{2}},
		{"search title", FilterOptions{Search: "deploy"}, []uint64{2}},
		{"search text", FilterOptions{Search: "FULL"}, []uint64{3}},
		{"since", FilterOptions{Since: 30 * time.Minute, Now: now}, []uint64{1, 2}},
		{"sticky only", FilterOptions{Sticky: ptr(true)}, []uint64{2}},
		{"expiring only", FilterOptions{Sticky: ptr(false)}, []uint64{1, 3}},
		{"limit", FilterOptions{Limit: 2}, []uint64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(testEntries(), tt.opts)))
		})
	}
}

func TestLookupByIndex(t *testing.T) {
	entries := testEntries()

	e := LookupByIndex(entries, 2)
	require.NotNil(t, e)
	assert.Equal(t, uint64(2), e.ID)

	assert.Nil(t, LookupByIndex(entries, 0))
	assert.Nil(t, LookupByIndex(entries, 4))
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		opts SortOptions
		want []uint64
	}{
		{"newest first", DefaultSortOptions(), []uint64{2, 1, 3}},
		{"oldest first", SortOptions{Field: SortByCreated, Order: SortAsc}, []uint64{3, 1, 2}},
		{"group asc keeps ties", SortOptions{Field: SortByGroup, Order: SortAsc}, []uint64{1, 2, 3}},
		{"type asc", SortOptions{Field: SortByType, Order: SortAsc}, []uint64{2, 1, 3}},
		{"remaining asc puts sticky last", SortOptions{Field: SortByRemaining, Order: SortAsc}, []uint64{3, 1, 2}},
		{"remaining desc puts sticky first", SortOptions{Field: SortByRemaining, Order: SortDesc}, []uint64{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := testEntries()
			Sort(entries, tt.opts)
			assert.Equal(t, tt.want, ids(entries))
		})
	}
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortByGroup, ParseSortField("G"))
	assert.Equal(t, SortByRemaining, ParseSortField("remaining"))
	assert.Equal(t, SortByCreated, ParseSortField("bogus"))
	assert.Equal(t, SortAsc, ParseSortOrder("ascending"))
	assert.Equal(t, SortDesc, ParseSortOrder(""))
}
