// Package logging provides structured logging for devscan.
//
// This package wraps a global zap logger with convenience functions used by
// the reactor, the multicast layer and the command line tools.
//
// # Log Levels
//
//   - Debug: datagram dumps, netlink messages, loop registrations
//   - Info: interface changes, receiver start and stop
//   - Warn: malformed announcements, failed memberships, removed handlers
//   - Error: startup failures
//
// # Silent By Default
//
// Command line tools print their results on stdout. Unless a level is given
// explicitly or DEVSCAN_LOG_LEVEL is set, the logger is a no-op so that
// output stays parseable:
//
//	DEVSCAN_LOG_LEVEL=debug devscan notify
//
// Log output goes to stderr.
//
// SetLevel changes the level of a running logger; devscan-bridge calls it
// when log_level changes in the configuration file.
//
// # Datagram Logging
//
//	logging.LogDatagram("received", "eth0", 1, payload)
//
// The payload is dumped as hex and ascii, capped at 256 bytes, and only when
// debug logging is enabled.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. Initialize itself should be called once from main.
package logging
