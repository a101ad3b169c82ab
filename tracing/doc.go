// Package tracing wires OpenTelemetry into the mailbox runtime. Every mail
// executed by a subtask and every failed default-action quantum can be
// recorded as a span. Without Init the global no-op provider is used, so
// instrumentation costs little when tracing is disabled.
package tracing
