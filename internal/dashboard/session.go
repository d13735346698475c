package dashboard

import (
	"context"
	"sync"
	"time"
)

// Session drives Update and a Runner synchronously. Dispatch returns once
// every effect caused by the command (and by its results) has run, except
// delayed commands, which fire on a timer.
type Session struct {
	mu     sync.Mutex
	ctx    context.Context
	runner *Runner
	state  State
	timers []*time.Timer
}

// NewSession creates a session with a fresh state.
func NewSession(ctx context.Context, runner *Runner) *Session {
	return &Session{ctx: ctx, runner: runner, state: NewState()}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start runs the startup effects.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.process(nil, Start())
}

// Dispatch applies cmd and runs the resulting effects.
func (s *Session) Dispatch(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.process([]Command{cmd}, nil)
}

// Close stops pending delayed commands.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Session) process(queue []Command, effects []Effect) {
	for {
		for _, eff := range effects {
			if after, ok := eff.(After); ok {
				cmd := after.Command
				s.timers = append(s.timers, time.AfterFunc(after.Delay, func() {
					if s.ctx.Err() == nil {
						s.Dispatch(cmd)
					}
				}))
				continue
			}
			if next := s.runner.Run(s.ctx, eff); next != nil {
				queue = append(queue, next)
			}
		}
		if len(queue) == 0 {
			return
		}
		var cmd Command
		cmd, queue = queue[0], queue[1:]
		s.state, effects = Update(s.state, cmd)
	}
}
