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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from State
		ev   event
		want State
	}{
		{StateIdle, eventStart, StateRequesting},
		{StateIdle, eventOK, StateIdle},
		{StateRequesting, eventOK, StateSuccess},
		{StateRequesting, eventInvalid, StateValidationFailed},
		{StateRequesting, eventTransient, StateTransientFailed},
		{StateRequesting, eventWoke, StateRequesting},
		{StateTransientFailed, eventRetry, StateWaiting},
		{StateTransientFailed, eventExhausted, StateExhaustedFailed},
		{StateWaiting, eventWoke, StateRequesting},
		{StateWaiting, eventCancelled, StateExhaustedFailed},
		{StateSuccess, eventStart, StateSuccess},
		{StateValidationFailed, eventRetry, StateValidationFailed},
		{StateExhaustedFailed, eventWoke, StateExhaustedFailed},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			if got := next(tt.from, tt.ev); got != tt.want {
				t.Errorf("next(%s, %s) = %s, want %s", tt.from, tt.ev, got, tt.want)
			}
		})
	}
}

func TestState_Terminal(t *testing.T) {
	terminal := map[State]bool{
		StateSuccess:          true,
		StateValidationFailed: true,
		StateExhaustedFailed:  true,
	}
	for s := StateIdle; s <= StateExhaustedFailed; s++ {
		assert.Equal(t, terminal[s], s.Terminal(), s.String())
	}
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "unknown", event(-1).String())
}

func TestNewBackoff(t *testing.T) {
	b := NewBackoff(3, time.Second)

	d, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, 2*time.Second, d)

	d, stop = b.Next()
	assert.False(t, stop)
	assert.Equal(t, 3*time.Second, d)

	_, stop = b.Next()
	assert.True(t, stop, "three attempts allow two waits")

	five := NewBackoff(5, time.Millisecond)
	var got []time.Duration
	for {
		d, stop := five.Next()
		if stop {
			break
		}
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 3 * time.Millisecond, 5 * time.Millisecond, 9 * time.Millisecond}, got)

	_, stop = NewBackoff(0, 0).Next()
	assert.True(t, stop, "a single attempt never waits")
}

func TestTimerSleep(t *testing.T) {
	assert.NoError(t, TimerSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, TimerSleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
