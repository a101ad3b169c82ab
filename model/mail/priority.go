package mail

import "math"

// Priority levels used by the runtime. Higher values are taken first.
const (
	// MinPriority is the record-processing level; the processor loop takes
	// at this level so it sees every mail.
	MinPriority = 0
	// ControlPriority is used for coordinator callbacks and watermarks.
	ControlPriority = 1
	// TimerPriority is used for processing-time timer firings.
	TimerPriority = 2
	// CheckpointPriority is used for checkpoint-barrier handling.
	CheckpointPriority = 5
	// MaxPriority is reserved for runtime control mail (poison, resume).
	MaxPriority = math.MaxInt32
)
