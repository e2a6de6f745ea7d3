package display

import (
	"time"

	"github.com/jmylchreest/toasty/internal/animation"
	"github.com/jmylchreest/toasty/internal/layout"
	"github.com/jmylchreest/toasty/internal/model"
)

// Options is the fully resolved configuration of one region.
type Options struct {
	Group    string
	Width    layout.Size
	Reverse  bool
	Position layout.Position
	Classes  string

	AnimationType animation.Type
	// Animation is zero unless configured in code; the coordinator then
	// uses animation.Default.
	Animation     animation.Animation
	AnimationName string

	Speed    time.Duration
	Duration time.Duration
	// Delay is accepted for compatibility but does not affect scheduling.
	Delay time.Duration

	// Max bounds the active items; zero means unlimited.
	Max              int
	IgnoreDuplicates bool
	CloseOnClick     bool
	PauseOnHover     bool
}

// DefaultOptions returns the options of an unconfigured region.
func DefaultOptions() Options {
	return Options{
		Group:         "",
		Width:         layout.ParseSize(300),
		Position:      layout.DefaultPosition,
		Classes:       "toasty-notification",
		AnimationType: animation.TypeCSS,
		AnimationName: "toasty-fade",
		Speed:         300 * time.Millisecond,
		Duration:      3 * time.Second,
		CloseOnClick:  true,
	}
}

// Direction reports whether new items are appended (true) or prepended.
// Bottom-anchored regions grow upwards, so the reverse flag is flipped
// for them.
func (o Options) Direction() bool {
	return o.Reverse != o.Position.IsBottom()
}

// DefersCompaction reports whether destroyed items wait for an
// after-leave signal before being removed.
func (o Options) DefersCompaction() bool {
	return o.AnimationType == animation.TypeVelocity
}

// effective is a request merged with the region options.
type effective struct {
	duration         time.Duration
	speed            time.Duration
	ignoreDuplicates bool
}

func (o Options) resolve(r model.Request) effective {
	eff := effective{
		duration:         o.Duration,
		speed:            o.Speed,
		ignoreDuplicates: o.IgnoreDuplicates,
	}
	if r.Duration != nil {
		eff.duration = *r.Duration
	}
	if r.Speed != nil {
		eff.speed = *r.Speed
	}
	if r.IgnoreDuplicates != nil {
		eff.ignoreDuplicates = *r.IgnoreDuplicates
	}
	return eff
}
