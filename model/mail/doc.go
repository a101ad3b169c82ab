// Package mail defines the unit of deferred work exchanged between producer
// goroutines and the single consumer of a subtask mailbox.
package mail
