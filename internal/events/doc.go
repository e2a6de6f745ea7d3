// Package events provides the in-process publish/subscribe channel that
// decouples notification producers from the per-group queue managers.
package events
