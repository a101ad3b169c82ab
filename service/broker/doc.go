// Package broker hands objects over between subtasks by key.
//
// A Broker is owned by the runtime of a job rather than being a
// process-wide registry; producer and consumer receive the same instance,
// which bounds the lifetime of every entry to that runtime.
package broker
