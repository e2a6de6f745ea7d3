package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextID_Monotonic(t *testing.T) {
	a := NextID()
	b := NextID()
	c := NextID()

	assert.Greater(t, a, uint64(0))
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateDestroyed, "destroyed"},
		{State(1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestItem_ActiveAndSticky(t *testing.T) {
	item := &Item{Duration: 3 * time.Second, Length: 3600 * time.Millisecond}
	assert.True(t, item.IsActive())
	assert.False(t, item.Sticky())

	item.State = StateDestroyed
	assert.False(t, item.IsActive())

	sticky := &Item{Duration: -time.Millisecond, Length: 599 * time.Millisecond}
	assert.True(t, sticky.Sticky())
	assert.True(t, sticky.ExpiresAt().IsZero())
}

func TestItem_ExpiresAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	item := &Item{CreatedAt: created, Length: 3600 * time.Millisecond}
	assert.Equal(t, created.Add(3600*time.Millisecond), item.ExpiresAt())
}

func TestItem_DedupeKey(t *testing.T) {
	a := &Item{Title: "A", Text: "body"}
	b := &Item{Title: "A", Text: "body", Type: "error"}
	c := &Item{Title: "Ab", Text: "ody"}

	assert.Equal(t, a.DedupeKey(), b.DedupeKey())
	assert.NotEqual(t, a.DedupeKey(), c.DedupeKey())
}

func TestTextRequest(t *testing.T) {
	r := TextRequest("Hello")
	assert.Equal(t, "", r.Title)
	assert.Equal(t, "Hello", r.Text)
	assert.Equal(t, "", r.Group)
	assert.Nil(t, r.Duration)
}

func TestRequest_Builders(t *testing.T) {
	base := Request{Title: "t"}
	r := base.WithDuration(time.Second).WithSpeed(10 * time.Millisecond).WithIgnoreDuplicates(true)

	assert.Nil(t, base.Duration, "builders must not mutate the receiver")
	if assert.NotNil(t, r.Duration) {
		assert.Equal(t, time.Second, *r.Duration)
	}
	if assert.NotNil(t, r.Speed) {
		assert.Equal(t, 10*time.Millisecond, *r.Speed)
	}
	if assert.NotNil(t, r.IgnoreDuplicates) {
		assert.True(t, *r.IgnoreDuplicates)
	}
}

func TestRequest_IsClear(t *testing.T) {
	assert.False(t, Request{}.IsClear())
	assert.True(t, Request{Clean: true}.IsClear())
	assert.True(t, Request{Clear: true}.IsClear())
}
