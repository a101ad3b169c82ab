package timer

import "errors"

var (
	ErrQuiesced    = errors.New("timer service quiesced")
	ErrNilCallback = errors.New("timer callback is nil")
	ErrInvalidSpec = errors.New("invalid cron spec")
)
