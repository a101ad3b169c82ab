package taskmail

import (
	"sync"

	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/broker"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service.
type Option func(s *Service)

// WithConfig replaces DefaultConfig.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithSubtaskName overrides Config.Subtask.
func WithSubtaskName(name string) Option {
	return func(s *Service) {
		s.subtask = name
	}
}

// WithLocker runs every mail and default action quantum while holding
// locker, for hosts sharing a checkpoint lock with legacy sources.
func WithLocker(locker sync.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithActionExecutor sets a custom execution discipline; it takes
// precedence over WithLocker and Config.Runtime.Discipline.
func WithActionExecutor(executor action.Executor) Option {
	return func(s *Service) {
		s.actionExecutor = executor
	}
}

// WithEventHandler subscribes handler to mail lifecycle events.
func WithEventHandler(handler func(*event.Event)) Option {
	return func(s *Service) {
		s.eventHandlers = append(s.eventHandlers, handler)
	}
}

// WithBroker shares a broker between the runtimes of a producer and a
// consumer subtask.
func WithBroker(b *broker.Broker[any]) Option {
	return func(s *Service) {
		s.broker = b
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracingErr = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for example
// OTLP, Jaeger or an in-memory recorder.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracingErr = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
