// Package eventloop delivers events from independent producers to the
// handlers registered for their namespace.
//
// A Loop owns a single dispatch goroutine. Post never blocks: events are
// appended to an unbounded queue, so handlers may post follow-up events
// (a radio reacting to Connect, a manager reacting to an IP address) without
// deadlocking the loop. Handlers therefore never run concurrently with each
// other, and events posted by one producer are delivered in post order.
//
// # Usage
//
//	loop := eventloop.New(eventloop.WithLogger(logger))
//	if err := loop.Start(ctx); err != nil {
//	    return err
//	}
//	defer loop.Stop()
//
//	unregister, _ := loop.Register(event.NamespaceWiFi, func(ev event.Event) {
//	    ...
//	})
//	defer unregister()
//
// A handler that panics is recovered and logged; the loop keeps running.
package eventloop
