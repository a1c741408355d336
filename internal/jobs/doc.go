// Package jobs holds background tasks that run beside the connection
// server. Each job owns a ticker goroutine started and stopped through the
// fx lifecycle; a failed run is logged and the next tick tries again.
package jobs
