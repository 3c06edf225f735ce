// Package eventloop implements a single-goroutine reactor on top of Linux
// epoll, together with the two waitable primitives it is usually paired
// with: an eventfd Notifier and a timerfd Timer.
//
// # Model
//
// One goroutine calls Execute or ExecuteFor and owns the loop for that
// call. Every handler runs on that goroutine, one at a time. Other
// goroutines interact with the loop only through AddEvent, EraseEvent and
// Stop; registration changes are queued and applied by the loop goroutine
// between polls, never while the kernel is being asked for readiness.
//
//	loop, err := eventloop.New()
//	if err != nil {
//	    return err
//	}
//	defer loop.Close()
//
//	timer, _ := eventloop.NewTimer(loop)
//	timer.Set(time.Second, true, func(fired bool) {
//	    if fired {
//	        sweep()
//	    }
//	})
//
//	status, err := loop.ExecuteFor(10 * time.Second)
//
// # Handler Failures
//
// Readiness is level-triggered. A handler that returns an error or panics
// is deregistered and logged, and the loop carries on with the remaining
// handlers. Only Stop ends Execute early.
package eventloop
