// Package observable provides the small reactive toolkit the routing engine is
// built on: a single-goroutine task loop, observable properties, hot subjects
// and a loop-bound debouncer.
//
// Every stage of the routing pipeline runs as a task on a Loop. Posting to the
// loop never runs the task inline, so a navigation that triggers another
// navigation is processed on a later tick instead of growing the call stack.
//
// Usage:
//
//	loop := observable.NewLoop(slog.Default())
//	defer loop.Close()
//
//	count := observable.NewDistinctProperty(0)
//	sub := count.Subscribe(func(v int) { fmt.Println("count", v) })
//	defer sub.Unsubscribe()
//
//	d := observable.NewDebouncer(loop, 100*time.Millisecond)
//	loop.Post(func() { d.Trigger(func() { count.Set(count.Value() + 1) }) })
package observable
