// Package executor provides the MailboxExecutor facade: a handle bound to a
// fixed priority over a subtask mailbox. Producer goroutines use it to submit
// mail; the subtask goroutine uses it to cooperatively run pending mail while
// it waits for something (yield).
package executor
