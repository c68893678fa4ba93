// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: worker/supervisor.go
// Summary: Owns the Desktop and Events workers, starts Events once Desktop
// signals readiness, and tears both down when either one ends.

package worker

import (
	"log"
	"sync"
)

// State is a Supervisor's lifecycle stage.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Worker is implemented by the Desktop and Events streams. Run blocks
// until the stream ends, returning nil for an orderly shutdown or the
// terminating error otherwise. Stop requests the worker to end at the
// next opportunity by closing its underlying Connection; it must be safe
// to call from any goroutine, any number of times, including while Run
// is blocked in a read.
type Worker interface {
	Run() error
	Stop()
}

// Supervisor runs a Desktop worker and, once it signals readiness, an
// Events worker, stopping whichever one is still running as soon as the
// other ends.
type Supervisor struct {
	mu    sync.Mutex
	state State

	desktop Worker
	events  Worker
}

// New returns an idle Supervisor.
func New() *Supervisor {
	return &Supervisor{state: StateIdle}
}

// State reports the current lifecycle stage.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

type eventsResult struct {
	worker Worker
	err    error
}

// Run starts desktop immediately and blocks until either worker ends. It
// waits for ready to close (desktop's StartEventsWorker signal) before
// invoking startEvents to attach and run the Events worker; if desktop
// ends before ready closes, startEvents is never called. Whichever
// worker ends first causes the other to be stopped and waited on. Run
// returns the first non-nil error encountered, or nil if both workers
// ended cleanly.
func (s *Supervisor) Run(desktop Worker, ready <-chan struct{}, startEvents func() (Worker, error)) error {
	s.mu.Lock()
	s.desktop = desktop
	s.state = StateRunning
	s.mu.Unlock()

	desktopDone := make(chan error, 1)
	go func() { desktopDone <- desktop.Run() }()

	abortReady := make(chan struct{})
	eventsResultCh := make(chan eventsResult, 1)

	go func() {
		select {
		case <-ready:
			w, err := startEvents()
			if err != nil {
				log.Printf("worker: starting events worker: %v", err)
				eventsResultCh <- eventsResult{nil, err}
				return
			}
			s.mu.Lock()
			s.events = w
			s.mu.Unlock()

			errCh := make(chan error, 1)
			go func() { errCh <- w.Run() }()
			select {
			case err := <-errCh:
				eventsResultCh <- eventsResult{w, err}
			case <-abortReady:
				w.Stop()
				eventsResultCh <- eventsResult{w, <-errCh}
			}
		case <-abortReady:
			eventsResultCh <- eventsResult{nil, nil}
		}
	}()

	var first error
	select {
	case derr := <-desktopDone:
		first = derr
		s.setState(StateStopping)
		close(abortReady)
		res := <-eventsResultCh
		if first == nil {
			first = res.err
		}
	case res := <-eventsResultCh:
		first = res.err
		s.setState(StateStopping)
		desktop.Stop()
		if derr := <-desktopDone; first == nil {
			first = derr
		}
	}

	s.setState(StateStopped)
	return first
}

// Close stops both workers, if running. Safe to call from any goroutine,
// any number of times, including concurrently with Run.
func (s *Supervisor) Close() {
	s.mu.Lock()
	desktop, events := s.desktop, s.events
	s.mu.Unlock()

	if desktop != nil {
		desktop.Stop()
	}
	if events != nil {
		events.Stop()
	}
}
