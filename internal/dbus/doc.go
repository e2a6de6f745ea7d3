// Package dbus bridges the org.freedesktop.Notifications D-Bus interface
// onto the event bus. The Server owns the well-known name and turns Notify
// and CloseNotification calls into add and close events; the Monitor
// mirrors traffic meant for another daemon; the Client sends
// notifications from the command line.
package dbus
