package mail

import (
	"fmt"
	"sync"

	"github.com/viant/taskmail/internal/idgen"
	"github.com/viant/taskmail/service/action"
)

// Options alter how a mail is admitted and queued.
type Options struct {
	// Urgent mail is inserted at the head of its priority level.
	Urgent bool `json:"urgent,omitempty" yaml:"urgent,omitempty"`
	// Deferrable mail may be postponed indefinitely; it is not admitted
	// once the mailbox is quiesced.
	Deferrable bool `json:"deferrable,omitempty" yaml:"deferrable,omitempty"`
}

// Urgent returns options for urgent mail.
func Urgent() Options { return Options{Urgent: true} }

// Deferrable returns options for deferrable mail.
func Deferrable() Options { return Options{Deferrable: true} }

// Mail is an immutable unit of work bound to a priority and to the execution
// discipline that must run it.
type Mail struct {
	id                string
	options           Options
	priority          int
	command           action.Command
	executor          action.Executor
	descriptionFormat string
	descriptionArgs   []interface{}
	cancel            func()
	cancelOnce        sync.Once
}

// New creates a mail. A nil executor runs the command immediately.
func New(options Options, command action.Command, priority int, executor action.Executor, descriptionFormat string, descriptionArgs ...interface{}) *Mail {
	if executor == nil {
		executor = action.Immediate()
	}
	return &Mail{
		id:                idgen.New(),
		options:           options,
		priority:          priority,
		command:           command,
		executor:          executor,
		descriptionFormat: descriptionFormat,
		descriptionArgs:   descriptionArgs,
	}
}

// NewWithCancel creates a mail whose cancel function is invoked when the
// mail is discarded without running (see Cancel).
func NewWithCancel(options Options, command action.Command, cancel func(), priority int, executor action.Executor, descriptionFormat string, descriptionArgs ...interface{}) *Mail {
	m := New(options, command, priority, executor, descriptionFormat, descriptionArgs...)
	m.cancel = cancel
	return m
}

// Cancel releases whatever the mail holds when it is discarded during
// shutdown. It runs the cancel function at most once.
func (m *Mail) Cancel() {
	if m.cancel == nil {
		return
	}
	m.cancelOnce.Do(m.cancel)
}

// ID returns the mail identifier.
func (m *Mail) ID() string { return m.id }

// Priority returns the priority assigned at creation.
func (m *Mail) Priority() int { return m.priority }

// Options returns the submission options.
func (m *Mail) Options() Options { return m.options }

// Run executes the command through the mail's execution discipline.
func (m *Mail) Run() error {
	return m.executor.Run(m.command)
}

// String formats the description; the formatting cost is paid only here.
func (m *Mail) String() string {
	if len(m.descriptionArgs) == 0 {
		return m.descriptionFormat
	}
	return fmt.Sprintf(m.descriptionFormat, m.descriptionArgs...)
}
