// Package receiver is the discovery client: one event loop driving a
// multicast server on the announce group, a one second retire timer, a
// netlink watcher that keeps group membership in step with the host's
// addresses, and a discovery.Monitor holding the live announcements.
//
//	r, err := receiver.New()
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	r.SetAnnounceCb(func(p discovery.Path, payload string) { fmt.Println(p) })
//	r.SetExpireCb(func(p discovery.Path) { fmt.Println("gone", p) })
//	return r.Start()
//
// Start blocks; Stop may be called from any goroutine or callback. Close
// waits for a running Start to return, so it must not be called from a
// callback.
package receiver
