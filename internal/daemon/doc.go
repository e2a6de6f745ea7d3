// Package daemon wires the event bus, the notification regions and every
// ingress and observer into one process with a shared lifecycle.
package daemon
