// Package button maps raw button samples to Pressed, Released and Held signals.
//
// A Board polls an Input (GPIO or no-op) and feeds every Button its edges.
// Each Button debounces edges, runs its own hold timer and delivers signals
// to its handlers on a dedicated goroutine, so a handler blocked on a slow
// service call never stalls sampling or the other buttons. While a handler
// is busy at most one Held waits behind it, and a Held whose press has
// ended is discarded rather than replayed.
package button
