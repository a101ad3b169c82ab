// Package action defines the execution discipline shared by the default
// action and every mail of one subtask. An Executor runs a command to
// completion under the guard the owning task uses to protect per-subtask
// state, so that no two commands of the same subtask ever overlap.
package action
