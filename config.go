package taskmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/taskmail/service/messaging"
	"gopkg.in/yaml.v3"
)

const (
	DisciplineImmediate    = "immediate"
	DisciplineSynchronized = "synchronized"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML or JSON; DefaultConfig supplies every value a
// document leaves out.
type Config struct {
	Subtask string        `json:"subtask" yaml:"subtask"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Timer   TimerConfig   `json:"timer" yaml:"timer"`
	Events  EventsConfig  `json:"events" yaml:"events"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

type RuntimeConfig struct {
	// Discipline is "immediate" or "synchronized" (checkpoint lock held
	// around every mail and default action quantum).
	Discipline string `json:"discipline" yaml:"discipline"`
	// ShutdownTimeout bounds how long Shutdown waits for the loop to drain.
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

type TimerConfig struct {
	// Location is an IANA zone name used for cron specs.
	Location string `json:"location" yaml:"location"`
}

type EventsConfig struct {
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Vendor  messaging.Vendor `json:"vendor" yaml:"vendor"`
	Buffer  int              `json:"buffer" yaml:"buffer"`
	// MaxRetries is how often an event whose handler panicked is redelivered
	// before it is dead-lettered.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile" yaml:"outputFile"`
}

// DefaultConfig returns a Config populated with the runtime defaults.
// Callers may modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Subtask: "subtask",
		Runtime: RuntimeConfig{
			Discipline:      DisciplineImmediate,
			ShutdownTimeout: 30 * time.Second,
		},
		Timer:  TimerConfig{Location: "UTC"},
		Events: EventsConfig{Enabled: true, Vendor: messaging.VendorMemory, Buffer: 1024, MaxRetries: 3},
		Tracing: TracingConfig{
			ServiceName:    "taskmail",
			ServiceVersion: "dev",
		},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	switch c.Runtime.Discipline {
	case DisciplineImmediate, DisciplineSynchronized:
	default:
		errs = append(errs, fmt.Errorf("runtime.discipline %q must be %q or %q", c.Runtime.Discipline, DisciplineImmediate, DisciplineSynchronized))
	}
	if c.Runtime.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("runtime.shutdownTimeout must be > 0"))
	}
	if _, err := c.Timer.location(); err != nil {
		errs = append(errs, fmt.Errorf("timer.location: %w", err))
	}
	if c.Events.Enabled {
		if c.Events.Vendor != messaging.VendorMemory {
			errs = append(errs, fmt.Errorf("events.vendor %q is not supported", c.Events.Vendor))
		}
		if c.Events.Buffer <= 0 {
			errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
		}
		if c.Events.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("events.maxRetries must be >= 0"))
		}
	}
	return errors.Join(errs...)
}

func (t TimerConfig) location() (*time.Location, error) {
	if t.Location == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Location)
}

// LoadConfig reads a YAML (or JSON) document from any URL supported by afs
// and overlays it on DefaultConfig.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
