// Package netlink watches the kernel's rtnetlink notifications and turns
// them into a small stream of interface events: an IPv4 address was Added
// or Removed, or everything should be resynchronized (Reset).
//
// The watcher runs inside an eventloop.Loop; its handler is called on the
// loop goroutine, the same goroutine that owns the multicast server it
// usually feeds.
package netlink
