// Package processor hosts the subtask run loop. The loop alternates between
// pending mail and one quantum of the default action (record processing),
// always preferring mail, and blocks on the mailbox when the default action
// is suspended. It is the single consumer of its mailbox.
package processor
