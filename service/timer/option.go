package timer

import "time"

// Option customises the timer service.
type Option func(*Service)

// WithLocation sets the time zone cron specs are evaluated in.
func WithLocation(location *time.Location) Option {
	return func(s *Service) {
		if location != nil {
			s.location = location
		}
	}
}
