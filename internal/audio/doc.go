// Package audio plays a sound when a notification is queued. Sounds are
// chosen per notification type from the configuration and can be
// overridden or suppressed per notification through its data map.
package audio
