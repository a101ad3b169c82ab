package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Until returns the duration until t measured with NowFunc; never negative.
func Until(t time.Time) time.Duration {
	d := t.Sub(NowFunc())
	if d < 0 {
		return 0
	}
	return d
}
