// Package reactive provides the observable value cell that backs every
// two-way bound model field.
//
// A Reactive[T] holds a single value of type T and an ordered list of keyed
// listeners. Every Set stores the value and notifies the listeners in
// registration order with the new value:
//
//	count := reactive.New(0)
//	count.On("log", func(n int) { fmt.Println("count is", n) })
//	count.Set(5) // prints "count is 5"
//
// # Selective Notification
//
// Set accepts options that skip listeners for a single write. Except skips
// listeners by key and When gates every listener with a predicate:
//
//	count.Set(6, reactive.Except("log"))
//	count.Set(7, reactive.When(func(key string) bool { return key != "log" }))
//
// A listener fires only if it is not excepted and the predicate returns true.
//
// # Reentrancy
//
// No lock is held while listeners run, so a listener may write to any cell,
// including the one that notified it. Notifications for a cell are queued in
// write order and drained by the goroutine that is currently dispatching.
// A write made from inside a listener stores its value immediately; its
// notification runs after the current listeners finish and before the
// outermost Set returns. The result is a total notification order per cell
// that matches the order in which values were stored.
//
// # Type Erasure
//
// *Reactive[T] implements Cell, which lets model reflection, rendering and
// the update engine work with fields of any T without knowing it statically.
package reactive
