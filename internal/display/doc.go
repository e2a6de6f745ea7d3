// Package display owns the per-group notification queues. It handles
// insertion order, duplicate suppression, max-count eviction, expiry
// timers, pause on hover and the two-phase removal of destroyed items.
package display
