// Package mailbox implements the priority mailbox of a subtask: a
// thread-safe queue of mail partitioned by priority, with FIFO order inside
// a level, and an OPEN -> QUIESCED -> CLOSED lifecycle.
//
// Any number of goroutines may put mail; exactly one goroutine, the
// subtask's consumer, is expected to take it. Levels are served in strict
// priority order with no anti-starvation, so a steady stream of high
// priority mail can delay lower levels indefinitely.
package mailbox
