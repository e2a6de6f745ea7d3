// Package animation decides when enter and leave animations run and what
// they animate. The animation engine itself is supplied by the renderer.
package animation

import (
	"log/slog"
	"time"
)

// Type selects how enter/leave transitions are driven.
type Type string

const (
	// TypeCSS leaves transitions to the renderer's own styling; the
	// coordinator only relays the after-leave signal.
	TypeCSS Type = "css"
	// TypeVelocity drives transitions through an explicit Transport.
	TypeVelocity Type = "velocity"
)

// ParseType maps a configured name to a Type, defaulting to TypeCSS.
func ParseType(s string) Type {
	if Type(s) == TypeVelocity {
		return TypeVelocity
	}
	return TypeCSS
}

// Element is the rendered representation of one item.
// Implementations must be comparable, typically a pointer.
type Element interface {
	// Height is the element's rendered height in renderer units.
	Height() int
}

// Descriptor is an opaque set of animated properties handed to a Transport,
// for example {"opacity": [0, 1]}.
type Descriptor map[string]any

// Source produces a Descriptor, either fixed or computed from the element.
type Source struct {
	static Descriptor
	fn     func(Element) Descriptor
}

// Static wraps a fixed descriptor.
func Static(d Descriptor) Source {
	return Source{static: d}
}

// Func wraps a descriptor computed per element.
func Func(fn func(Element) Descriptor) Source {
	return Source{fn: fn}
}

// Resolve returns the descriptor for el.
func (s Source) Resolve(el Element) Descriptor {
	if s.fn != nil {
		return s.fn(el)
	}
	return s.static
}

// IsZero reports whether the source is unset.
func (s Source) IsZero() bool {
	return s.fn == nil && s.static == nil
}

// Animation holds the enter and leave sources.
type Animation struct {
	Enter Source
	Leave Source
}

// Default returns the stock animation: items collapse in from zero height
// and fade, and leave by collapsing to zero height.
func Default() Animation {
	return Animation{
		Enter: Func(func(el Element) Descriptor {
			h := 0
			if el != nil {
				h = el.Height()
			}
			return Descriptor{
				"height":  []int{h, 0},
				"opacity": []int{1, 0},
			}
		}),
		Leave: Static(Descriptor{
			"height":  0,
			"opacity": []int{0, 1},
		}),
	}
}

// Options are passed to a Transport with each animation.
type Options struct {
	Duration time.Duration
	// Complete must be called by the transport once the animation ends.
	Complete func()
}

// Transport runs an animation on an element.
type Transport interface {
	Animate(el Element, d Descriptor, opts Options)
}

// Coordinator invokes the transport at mount and unmount and relays the
// after-leave signal to the queue's deferred compaction.
type Coordinator struct {
	typ       Type
	animation Animation
	speed     time.Duration
	transport Transport
	compact   func()
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator. compact is called on AfterLeave.
func NewCoordinator(typ Type, anim Animation, speed time.Duration, transport Transport, compact func(), logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if anim.Enter.IsZero() && anim.Leave.IsZero() {
		anim = Default()
	}
	return &Coordinator{
		typ:       typ,
		animation: anim,
		speed:     speed,
		transport: transport,
		compact:   compact,
		logger:    logger,
	}
}

// Type returns the coordinator's animation type.
func (c *Coordinator) Type() Type {
	return c.typ
}

// DefersCompaction reports whether destroyed items must stay in the
// backing list until AfterLeave is signalled.
func (c *Coordinator) DefersCompaction() bool {
	return c.typ == TypeVelocity
}

// Enter runs the enter animation for a freshly mounted element.
func (c *Coordinator) Enter(el Element, complete func()) {
	c.run("enter", c.animation.Enter, el, complete)
}

// Leave runs the leave animation for an element being unmounted.
func (c *Coordinator) Leave(el Element, complete func()) {
	c.run("leave", c.animation.Leave, el, complete)
}

// AfterLeave signals that an exit transition has finished.
func (c *Coordinator) AfterLeave() {
	if c.compact != nil {
		c.compact()
	}
}

func (c *Coordinator) run(phase string, src Source, el Element, complete func()) {
	if c.typ != TypeVelocity {
		return
	}
	if c.transport == nil {
		c.logger.Debug("no animation transport configured", "phase", phase)
		if complete != nil {
			complete()
		}
		return
	}
	c.transport.Animate(el, src.Resolve(el), Options{
		Duration: c.speed,
		Complete: complete,
	})
}
