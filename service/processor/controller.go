package processor

// Controller is handed to the default action so it can influence the loop.
// Its methods must be called from the subtask goroutine.
type Controller interface {
	// SuspendDefaultAction stops invoking the default action until the
	// returned Suspension is resumed. Repeated calls return the same
	// Suspension while it is active.
	SuspendDefaultAction() Suspension
	// AllActionsCompleted ends the loop once pending mail ahead of it ran.
	AllActionsCompleted()
}

// Suspension resumes a suspended default action. Resume is safe to call from
// any goroutine, e.g. when input becomes available again.
type Suspension interface {
	Resume()
}

type controller struct {
	service *Service
}

func (c *controller) SuspendDefaultAction() Suspension {
	return c.service.suspendDefaultAction()
}

func (c *controller) AllActionsCompleted() {
	c.service.AllActionsCompleted()
}

type suspension struct {
	service *Service
}

func (s *suspension) Resume() {
	s.service.sendControlMail(func() {
		if s.service.suspension == s {
			s.service.suspension = nil
			s.service.available.Store(true)
		}
	}, "resume default action")
}
