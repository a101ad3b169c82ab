// Package progress keeps aggregated mail counters (submitted, executed,
// failed, ...) for one subtask. The tracker can be carried in a context so
// that components update it without a global registry.
package progress
