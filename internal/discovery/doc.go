// Package discovery tracks devices by their multicast announcements.
//
// # Monitor
//
// Monitor is the announcement state machine. Each announcement belongs to
// a communication path (receiving interface, sending interface, device
// uuid and optional router uuid). A path moves from absent to present when
// its first valid announcement arrives, and back to absent when a sweep
// finds its deadline passed:
//
//	m := discovery.NewMonitor()
//	m.SetAnnounceCb(func(p discovery.Path, payload string) { ... })
//	m.SetExpireCb(func(p discovery.Path) { ... })
//	m.ProcessReceivedAnnouncement("eth0", payload)
//	m.CheckForExpiredAnnouncements()
//
// The announce callback fires once per new path and once per changed
// payload; identical repeats only refresh the deadline. Registering an
// announce callback replays every live entry to it.
//
// Malformed announcements are reported through the error callback with an
// ErrorCode and dropped. Panics in callbacks are recovered and logged.
//
// # Bridges
//
// Scanner browses mDNS for devscan-bridge instances on the local network.
//
// # Thread Safety
//
// Monitor is not synchronized and must be driven from one goroutine, in
// practice the receiver's event loop. Scanner and Device are safe for
// concurrent use.
package discovery
