// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// State is a position in the model-call state machine:
//
//	Idle -> Requesting -> Success
//	                   -> ValidationFailed
//	                   -> TransientFailed -> Waiting -> Requesting
//	                                      -> ExhaustedFailed
//
// Success, ValidationFailed and ExhaustedFailed are terminal. A wait
// interrupted by context cancellation also ends in ExhaustedFailed.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateSuccess
	StateValidationFailed
	StateTransientFailed
	StateWaiting
	StateExhaustedFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateRequesting:       "requesting",
	StateSuccess:          "success",
	StateValidationFailed: "validation_failed",
	StateTransientFailed:  "transient_failed",
	StateWaiting:          "waiting",
	StateExhaustedFailed:  "exhausted_failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateValidationFailed || s == StateExhaustedFailed
}

type event int

const (
	eventStart     event = iota // first request
	eventOK                     // response validated
	eventInvalid                // response failed validation
	eventTransient              // request error or timeout
	eventRetry                  // attempts remain
	eventExhausted              // no attempts remain
	eventWoke                   // wait elapsed
	eventCancelled              // wait interrupted
)

var eventNames = [...]string{
	eventStart:     "start",
	eventOK:        "ok",
	eventInvalid:   "invalid",
	eventTransient: "transient",
	eventRetry:     "retry",
	eventExhausted: "exhausted",
	eventWoke:      "woke",
	eventCancelled: "cancelled",
}

func (e event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[e]
}

// next is the transition function. Events that are not valid in s leave
// s unchanged.
func next(s State, e event) State {
	switch s {
	case StateIdle:
		if e == eventStart {
			return StateRequesting
		}
	case StateRequesting:
		switch e {
		case eventOK:
			return StateSuccess
		case eventInvalid:
			return StateValidationFailed
		case eventTransient:
			return StateTransientFailed
		}
	case StateTransientFailed:
		switch e {
		case eventRetry:
			return StateWaiting
		case eventExhausted:
			return StateExhaustedFailed
		}
	case StateWaiting:
		switch e {
		case eventWoke:
			return StateRequesting
		case eventCancelled:
			return StateExhaustedFailed
		}
	}
	return s
}

// Sleeper waits between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleep blocks for d or until ctx is done.
func TimerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewBackoff returns the wait schedule for a call with maxAttempts
// requests: before retry n (0-based) it waits 2^n+1 units, and it stops
// after maxAttempts-1 waits.
func NewBackoff(maxAttempts int, unit time.Duration) retry.Backoff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if unit <= 0 {
		unit = time.Second
	}
	var attempt uint
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		d := time.Duration((1<<attempt)+1) * unit
		attempt++
		return d, false
	})
	return retry.WithMaxRetries(uint64(maxAttempts-1), b)
}
