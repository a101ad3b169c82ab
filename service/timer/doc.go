// Package timer schedules processing-time callbacks for a subtask.
//
// The timer goroutines never run callbacks themselves: each firing is
// converted into a mail submitted at the executor's priority (normally
// mail.TimerPriority), so callbacks execute on the subtask goroutine between
// records, under the same execution discipline as any other mail.
package timer
